// Package notification records follow notifications and pushes them to
// connected clients.
package notification

import "time"

// TypeFollow marks a "someone followed you" notification.
const TypeFollow = "follow"

// Notification is one message addressed to UserID.
type Notification struct {
	ID            int       `json:"notification_id"`
	UserID        int       `json:"user_id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	ReadStatus    bool      `json:"read_status"`
	CreatedAt     time.Time `json:"created_at"`
	RelatedUserID *int      `json:"related_user_id,omitempty"`
	SenderName    string    `json:"sender_name,omitempty"`
}

// NotificationData is the envelope pushed over the WebSocket.
type NotificationData struct {
	Type         string       `json:"type"`
	Notification Notification `json:"notification"`
}
