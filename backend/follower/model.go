// Package follower maintains the directed follow relation between users.
package follower

import (
	"errors"
	"time"
)

var (
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrNotFound is returned by UserQuery.First when the query is empty.
	ErrNotFound = errors.New("no matching user")
)

// Follow is one directed edge: FollowerID follows FollowedID.
type Follow struct {
	FollowerID int       `json:"follower_id"`
	FollowedID int       `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
