// Package post stores posts and computes the followed-posts feed.
package post

import "time"

// MaxBodyLength is the longest post body accepted, in characters.
const MaxBodyLength = 140

// Post is one message authored by a single user.
type Post struct {
	ID        int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one page of posts, newest first.
type Page struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	HasNext bool   `json:"has_next"`
	HasPrev bool   `json:"has_prev"`
}
