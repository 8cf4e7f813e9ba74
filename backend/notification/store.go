package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"microblog/backend/db"
)

// Store persists notifications.
type Store struct {
	q db.Querier
}

// NewStore returns a Store backed by q.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// Create inserts n and fills in its ID and CreatedAt.
func (s *Store) Create(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.UTC().Truncate(time.Millisecond)

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message, related_user_id, read_status, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		n.UserID, n.Type, n.Message, n.RelatedUserID, n.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	n.ID = int(id)
	return nil
}

// ForUser lists userID's notifications, newest first.
func (s *Store) ForUser(ctx context.Context, userID int, unreadOnly bool) ([]Notification, error) {
	query := `
		SELECT n.id, n.user_id, n.type, n.message, n.related_user_id, n.read_status, n.created_at,
		       COALESCE(u.username, '')
		FROM notifications n
		LEFT JOIN users u ON u.id = n.related_user_id
		WHERE n.user_id = ?`
	if unreadOnly {
		query += ` AND n.read_status = 0`
	}
	query += ` ORDER BY n.created_at DESC, n.id DESC`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		var (
			n         Notification
			related   sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &related, &n.ReadStatus, &createdAt, &n.SenderName); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if related.Valid {
			id := int(related.Int64)
			n.RelatedUserID = &id
		}
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks every unread notification for userID as read and
// returns how many changed.
func (s *Store) MarkRead(ctx context.Context, userID int) (int, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE notifications SET read_status = 1 WHERE user_id = ? AND read_status = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return int(n), nil
}
