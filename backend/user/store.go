package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"microblog/backend/db"
)

var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate indicates the username or email is already registered.
	ErrDuplicate = errors.New("username or email already taken")
	// ErrInvalid indicates a user record is missing a required field.
	ErrInvalid = errors.New("username and email are required")
)

// Columns selects a user row aliased as u, in the order ScanRow expects.
const Columns = "u.id, u.username, u.email, u.password_hash, u.about_me, u.last_seen, u.created_at"

// RowScanner is implemented by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanRow reads one row selected with Columns.
func ScanRow(row RowScanner) (User, error) {
	var (
		u         User
		lastSeen  sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AboutMe, &lastSeen, &createdAt); err != nil {
		return User{}, err
	}
	if lastSeen.Valid {
		u.LastSeen = time.UnixMilli(lastSeen.Int64).UTC()
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

// Store persists users.
type Store struct {
	q db.Querier
}

// NewStore returns a Store backed by q.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Create inserts u and fills in its ID and CreatedAt.
func (s *Store) Create(ctx context.Context, u *User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if u.Username == "" || u.Email == "" {
		return ErrInvalid
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.CreatedAt = u.CreatedAt.UTC().Truncate(time.Millisecond)

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, about_me, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.AboutMe, u.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = int(id)
	return nil
}

// ByID loads a user by primary key.
func (s *Store) ByID(ctx context.Context, id int) (User, error) {
	return s.one(ctx, "u.id = ?", id)
}

// ByUsername loads a user by username.
func (s *Store) ByUsername(ctx context.Context, username string) (User, error) {
	return s.one(ctx, "u.username = ?", strings.TrimSpace(username))
}

// ByEmail loads a user by email.
func (s *Store) ByEmail(ctx context.Context, email string) (User, error) {
	return s.one(ctx, "u.email = ?", strings.TrimSpace(email))
}

// UpdateAbout replaces the user's about_me text.
func (s *Store) UpdateAbout(ctx context.Context, id int, about string) error {
	res, err := s.q.ExecContext(ctx, `UPDATE users SET about_me = ? WHERE id = ?`, about, id)
	if err != nil {
		return fmt.Errorf("update about_me: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update about_me: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch records at as the user's last activity time.
func (s *Store) Touch(ctx context.Context, id int, at time.Time) error {
	if _, err := s.q.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, at.UTC().UnixMilli(), id); err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}
	return nil
}

func (s *Store) one(ctx context.Context, where string, arg any) (User, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+Columns+" FROM users u WHERE "+where, arg)
	u, err := ScanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
