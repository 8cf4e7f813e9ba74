package follower

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microblog/backend/db"
	"microblog/backend/user"
)

// Graph reads and writes follow edges.
type Graph struct {
	q db.Querier
}

// NewGraph returns a Graph backed by q. Pass a transaction to batch
// several edge changes behind one commit.
func NewGraph(q db.Querier) *Graph {
	return &Graph{q: q}
}

// Follow adds the edge followerID -> followedID. Following twice is a no-op.
func (g *Graph) Follow(ctx context.Context, followerID, followedID int) error {
	_, err := g.Add(ctx, followerID, followedID)
	return err
}

// Add is Follow that also reports whether this call created the edge.
// Of several concurrent Adds of one edge exactly one sees created.
func (g *Graph) Add(ctx context.Context, followerID, followedID int) (created bool, err error) {
	if followerID == followedID {
		return false, ErrSelfFollow
	}
	res, err := g.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO followers (follower_id, followed_id, created_at)
		VALUES (?, ?, ?)`,
		followerID, followedID, time.Now().UTC().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("insert follow %d->%d: %w", followerID, followedID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert follow %d->%d: %w", followerID, followedID, err)
	}
	return n == 1, nil
}

// Unfollow removes the edge followerID -> followedID if it exists.
func (g *Graph) Unfollow(ctx context.Context, followerID, followedID int) error {
	_, err := g.q.ExecContext(ctx,
		`DELETE FROM followers WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("delete follow %d->%d: %w", followerID, followedID, err)
	}
	return nil
}

// IsFollowing reports whether the edge followerID -> followedID exists.
func (g *Graph) IsFollowing(ctx context.Context, followerID, followedID int) (bool, error) {
	var exists bool
	err := g.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM followers WHERE follower_id = ? AND followed_id = ?)`,
		followerID, followedID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow %d->%d: %w", followerID, followedID, err)
	}
	return exists, nil
}

// Followers is the query of users following userID.
func (g *Graph) Followers(userID int) *UserQuery {
	return &UserQuery{q: g.q, join: "f.follower_id", match: "f.followed_id", userID: userID}
}

// Followed is the query of users that userID follows.
func (g *Graph) Followed(userID int) *UserQuery {
	return &UserQuery{q: g.q, join: "f.followed_id", match: "f.follower_id", userID: userID}
}

// Counts returns how many users follow userID and how many userID follows.
func (g *Graph) Counts(ctx context.Context, userID int) (followers, followed int, err error) {
	if followers, err = g.Followers(userID).Count(ctx); err != nil {
		return 0, 0, err
	}
	if followed, err = g.Followed(userID).Count(ctx); err != nil {
		return 0, 0, err
	}
	return followers, followed, nil
}

// UserQuery is a re-evaluating query over one side of the follow relation.
// Every call runs against the current edge set; nothing is cached.
type UserQuery struct {
	q      db.Querier
	join   string
	match  string
	userID int
}

func (uq *UserQuery) from() string {
	return " FROM users u JOIN followers f ON u.id = " + uq.join + " WHERE " + uq.match + " = ?"
}

// All returns every matching user ordered by username.
func (uq *UserQuery) All(ctx context.Context) ([]user.User, error) {
	rows, err := uq.q.QueryContext(ctx, "SELECT "+user.Columns+uq.from()+" ORDER BY u.username, u.id", uq.userID)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := user.ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follows: %w", err)
	}
	return users, nil
}

// Count returns the number of matching users.
func (uq *UserQuery) Count(ctx context.Context) (int, error) {
	var n int
	if err := uq.q.QueryRowContext(ctx, "SELECT COUNT(*)"+uq.from(), uq.userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}

// First returns the first matching user in All order, or ErrNotFound.
func (uq *UserQuery) First(ctx context.Context) (user.User, error) {
	row := uq.q.QueryRowContext(ctx, "SELECT "+user.Columns+uq.from()+" ORDER BY u.username, u.id LIMIT 1", uq.userID)
	u, err := user.ScanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, fmt.Errorf("first follow: %w", err)
	}
	return u, nil
}
