package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	ID       int
	Username string
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens returns a Tokens signing with secret; tokens expire after ttl.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its claims.
func (t *Tokens) Parse(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID <= 0 {
		return Claims{}, errors.New("token has no user id")
	}
	return claims, nil
}

// bearerToken reads the token from the Authorization header, falling back
// to the token query parameter for WebSocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid token and attaches the
// caller's Identity to the request context.
func (t *Tokens) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		claims, err := t.Parse(tokenString)
		if err != nil {
			log.Printf("[JWT] Invalid token: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{ID: claims.UserID, Username: claims.Username})
		next(w, r.WithContext(ctx))
	}
}
