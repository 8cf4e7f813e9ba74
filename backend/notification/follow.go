package notification

import (
	"context"
	"log"

	"microblog/backend/user"
)

// Service records notifications and pushes them to online recipients.
type Service struct {
	store *Store
	hub   *Hub
}

// NewService returns a Service. hub may be nil to only persist.
func NewService(store *Store, hub *Hub) *Service {
	return &Service{store: store, hub: hub}
}

// NotifyFollow tells followed that follower started following them.
func (s *Service) NotifyFollow(ctx context.Context, follower, followed user.User) error {
	followerID := follower.ID
	n := Notification{
		UserID:        followed.ID,
		Type:          TypeFollow,
		Message:       follower.Username + " started following you",
		RelatedUserID: &followerID,
		SenderName:    follower.Username,
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return err
	}

	if s.hub != nil {
		delivered := s.hub.Send(followed.ID, NotificationData{Type: "notification", Notification: n})
		log.Printf("[Notify] Follow %d->%d pushed to %d connection(s)", follower.ID, followed.ID, delivered)
	}
	return nil
}
