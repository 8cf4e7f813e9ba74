package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"microblog/backend/pkg/httpjson"
)

const (
	avatarSize     = 128
	maxAboutLength = 140
)

// FollowCounter reports follow-graph totals for profile pages.
type FollowCounter interface {
	Counts(ctx context.Context, userID int) (followers, followed int, err error)
}

// Handler serves registration, login and profile endpoints.
type Handler struct {
	users   *Store
	tokens  *Tokens
	limiter *Limiter
	follows FollowCounter
}

// NewHandler wires the user endpoints. limiter may be nil to disable throttling.
func NewHandler(users *Store, tokens *Tokens, limiter *Limiter, follows FollowCounter) *Handler {
	return &Handler{users: users, tokens: tokens, limiter: limiter, follows: follows}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	AboutMe  string `json:"about_me"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileResponse struct {
	Public
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

// Register creates an account. The response is the caller's own record,
// email included.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		log.Printf("[Register] JSON decode error: %v", err)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "Username, email and password are required", http.StatusBadRequest)
		return
	}

	u := User{Username: req.Username, Email: req.Email, AboutMe: req.AboutMe}
	if err := u.SetPassword(req.Password); err != nil {
		log.Printf("[Register] Password hash error: %v", err)
		http.Error(w, "Invalid password", http.StatusBadRequest)
		return
	}
	if err := h.users.Create(r.Context(), &u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			http.Error(w, "Username or email already registered", http.StatusConflict)
			return
		}
		log.Printf("[Register] DB insert error: %v", err)
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	log.Printf("[Register] User %s registered successfully", u.Username)
	httpjson.Write(w, http.StatusCreated, u)
}

// Login verifies credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
		return
	}

	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	u, err := h.users.ByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[Login] User lookup failed: %v", err)
		}
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !u.CheckPassword(req.Password) {
		log.Printf("[Login] Invalid password for id=%d", u.ID)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		log.Printf("[Login] %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	log.Printf("[Login] User %d logged in", u.ID)
	httpjson.Write(w, http.StatusOK, map[string]string{"token": token})
}

// Profile returns a user's public profile with follow totals.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.ByUsername(r.Context(), r.PathValue("username"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("[Profile] User lookup failed: %v", err)
		http.Error(w, "Database error while finding user", http.StatusInternalServerError)
		return
	}

	resp := profileResponse{Public: u.Public(avatarSize)}
	if h.follows != nil {
		resp.Followers, resp.Following, err = h.follows.Counts(r.Context(), u.ID)
		if err != nil {
			log.Printf("[Profile] Follow counts for id=%d: %v", u.ID, err)
			http.Error(w, "Database error while counting follows", http.StatusInternalServerError)
			return
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// UpdateAbout edits the caller's about_me text.
func (h *Handler) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	me, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		AboutMe string `json:"about_me"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if len([]rune(req.AboutMe)) > maxAboutLength {
		http.Error(w, "About me is too long", http.StatusBadRequest)
		return
	}

	if err := h.users.UpdateAbout(r.Context(), me.ID, req.AboutMe); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("[Profile] Update about_me for id=%d: %v", me.ID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	httpjson.Message(w, http.StatusOK, "Profile updated")
}

// Authenticated requires a valid token and records the caller's last_seen.
func (h *Handler) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return h.tokens.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if me, ok := FromContext(r.Context()); ok {
			if err := h.users.Touch(r.Context(), me.ID, time.Now()); err != nil {
				log.Printf("[Auth] Touch last_seen for id=%d: %v", me.ID, err)
			}
		}
		next(w, r)
	})
}
