package user

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is lowered by tests to keep bcrypt fast.
var hashCost = bcrypt.DefaultCost

// User is a registered account. PasswordHash never holds the plaintext.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AboutMe      string    `json:"about_me"`
	LastSeen     time.Time `json:"last_seen,omitzero"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public is the view of a user shown to other users. The email only
// leaves the server as its avatar hash.
type Public struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	AboutMe   string    `json:"about_me"`
	Avatar    string    `json:"avatar"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the user's public view with an avatar of size pixels.
func (u User) Public(avatarSize int) Public {
	return Public{
		ID:        u.ID,
		Username:  u.Username,
		AboutMe:   u.AboutMe,
		Avatar:    u.Avatar(avatarSize),
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}

// SetPassword stores a salted bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hashed)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Avatar returns the Gravatar URL for the user's email at size pixels.
func (u User) Avatar(size int) string {
	return Avatar(u.Email, size)
}

// Avatar returns the Gravatar URL for email, using the retro default image.
func Avatar(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=retro&s=%d", hex.EncodeToString(sum[:]), size)
}
