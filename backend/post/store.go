package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"microblog/backend/db"
)

var (
	// ErrNotFound indicates no post matched the lookup.
	ErrNotFound = errors.New("post not found")
	// ErrEmptyBody rejects posts without text.
	ErrEmptyBody = errors.New("post body is required")
	// ErrBodyTooLong rejects posts longer than MaxBodyLength.
	ErrBodyTooLong = fmt.Errorf("post body exceeds %d characters", MaxBodyLength)
)

const postColumns = "p.id AS id, p.user_id AS user_id, u.username AS author, p.body AS body, p.created_at AS created_at"

// Posts by the user plus posts by everyone the user follows. The user's
// own posts come from the second arm, so an empty follow set still yields
// them. Equal timestamps fall back to the newer post id.
const followedPostsQuery = `
SELECT ` + postColumns + `
FROM posts p
JOIN followers f ON f.followed_id = p.user_id
JOIN users u ON u.id = p.user_id
WHERE f.follower_id = ?
UNION
SELECT ` + postColumns + `
FROM posts p
JOIN users u ON u.id = p.user_id
WHERE p.user_id = ?
ORDER BY created_at DESC, id DESC`

const explorePostsQuery = `
SELECT ` + postColumns + `
FROM posts p
JOIN users u ON u.id = p.user_id
ORDER BY created_at DESC, id DESC`

const authorPostsQuery = `
SELECT ` + postColumns + `
FROM posts p
JOIN users u ON u.id = p.user_id
WHERE p.user_id = ?
ORDER BY created_at DESC, id DESC`

// Store persists posts.
type Store struct {
	q db.Querier
}

// NewStore returns a Store backed by q.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Create inserts p. A zero CreatedAt is set to now; timestamps keep
// millisecond precision.
func (s *Store) Create(ctx context.Context, p *Post) error {
	p.Body = strings.TrimSpace(p.Body)
	if p.Body == "" {
		return ErrEmptyBody
	}
	if len([]rune(p.Body)) > MaxBodyLength {
		return ErrBodyTooLong
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO posts (user_id, body, created_at) VALUES (?, ?, ?)`,
		p.UserID, p.Body, p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	p.ID = int(id)
	return nil
}

// ByID loads a post with its author's username.
func (s *Store) ByID(ctx context.Context, id int) (Post, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("select post: %w", err)
	}
	return p, nil
}

// FollowedPosts returns the feed of userID: their own posts and the posts
// of everyone they follow, newest first.
func (s *Store) FollowedPosts(ctx context.Context, userID int) ([]Post, error) {
	return s.list(ctx, followedPostsQuery, userID, userID)
}

// FollowedPostsPage returns one page of FollowedPosts.
func (s *Store) FollowedPostsPage(ctx context.Context, userID, page, perPage int) (Page, error) {
	return s.page(ctx, followedPostsQuery, page, perPage, userID, userID)
}

// Explore returns one page of every post, newest first.
func (s *Store) Explore(ctx context.Context, page, perPage int) (Page, error) {
	return s.page(ctx, explorePostsQuery, page, perPage)
}

// ByAuthor returns one page of userID's posts, newest first.
func (s *Store) ByAuthor(ctx context.Context, userID, page, perPage int) (Page, error) {
	return s.page(ctx, authorPostsQuery, page, perPage, userID)
}

// page runs query for 1-based page, fetching one extra row to detect a next page.
func (s *Store) page(ctx context.Context, query string, page, perPage int, args ...any) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return Page{}, fmt.Errorf("per page must be positive, got %d", perPage)
	}
	// Past the largest representable offset nothing can be on the page.
	if page-1 > (math.MaxInt-1)/perPage {
		return Page{Posts: []Post{}, Page: page, PerPage: perPage, HasPrev: true}, nil
	}

	args = append(args, perPage+1, (page-1)*perPage)
	posts, err := s.list(ctx, query+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return Page{}, err
	}

	result := Page{Page: page, PerPage: perPage, HasPrev: page > 1}
	if len(posts) > perPage {
		result.HasNext = true
		posts = posts[:perPage]
	}
	result.Posts = posts
	return result, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var (
		p         Post
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Author, &p.Body, &createdAt); err != nil {
		return Post{}, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return p, nil
}
