package notification

import (
	"log"
	"net/http"

	"microblog/backend/pkg/httpjson"
	"microblog/backend/user"
)

// Handler serves the notification endpoints.
type Handler struct {
	store *Store
}

// NewHandler wires the notification endpoints.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// List returns the caller's notifications; ?unread=true filters to unread.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	me, ok := user.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, err := h.store.ForUser(r.Context(), me.ID, r.URL.Query().Get("unread") == "true")
	if err != nil {
		log.Printf("[Notify] Listing notifications for id %d: %v", me.ID, err)
		http.Error(w, "Error retrieving notifications", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, notifications)
}

// MarkRead marks all of the caller's notifications as read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	me, ok := user.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	n, err := h.store.MarkRead(r.Context(), me.ID)
	if err != nil {
		log.Printf("[Notify] Mark read for id %d: %v", me.ID, err)
		http.Error(w, "Error updating notifications", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"marked_read": n})
}
