package follower

import (
	"context"
	"errors"
	"log"
	"net/http"

	"microblog/backend/pkg/httpjson"
	"microblog/backend/user"
)

const listAvatarSize = 36

// Notifier is told about newly created follow edges.
type Notifier interface {
	NotifyFollow(ctx context.Context, follower, followed user.User) error
}

// Handler serves the follow endpoints.
type Handler struct {
	graph    *Graph
	users    *user.Store
	notifier Notifier
}

// NewHandler wires the follow endpoints. notifier may be nil.
func NewHandler(graph *Graph, users *user.Store, notifier Notifier) *Handler {
	return &Handler{graph: graph, users: users, notifier: notifier}
}

// resolve loads the caller and the user named by the username query parameter.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (me, target user.User, ok bool) {
	identity, found := user.FromContext(r.Context())
	if !found {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return me, target, false
	}

	me, err := h.users.ByID(r.Context(), identity.ID)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return me, target, false
	} else if err != nil {
		log.Printf("[Follow] Database error getting user id=%d: %v", identity.ID, err)
		http.Error(w, "Database error while finding user", http.StatusInternalServerError)
		return me, target, false
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Username parameter is required", http.StatusBadRequest)
		return me, target, false
	}
	target, err = h.users.ByUsername(r.Context(), username)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "Target user not found", http.StatusNotFound)
		return me, target, false
	} else if err != nil {
		log.Printf("[Follow] Database error getting user by username '%s': %v", username, err)
		http.Error(w, "Database error while finding target user", http.StatusInternalServerError)
		return me, target, false
	}
	return me, target, true
}

// Follow makes the caller follow ?username=.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	me, target, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if me.ID == target.ID {
		http.Error(w, "Cannot follow yourself", http.StatusBadRequest)
		return
	}

	created, err := h.graph.Add(r.Context(), me.ID, target.ID)
	if err != nil {
		log.Printf("[Follow] %v", err)
		http.Error(w, "Error creating follow relationship", http.StatusInternalServerError)
		return
	}
	if !created {
		httpjson.Message(w, http.StatusOK, "Already following this user")
		return
	}
	log.Printf("[Follow] User %d now follows %d", me.ID, target.ID)

	if h.notifier != nil {
		if err := h.notifier.NotifyFollow(r.Context(), me, target); err != nil {
			log.Printf("[Follow] Error creating follow notification: %v", err)
		}
	}
	httpjson.Message(w, http.StatusCreated, "Successfully followed user")
}

// Unfollow removes the caller's edge to ?username=. Not following is fine.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	me, target, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.graph.Unfollow(r.Context(), me.ID, target.ID); err != nil {
		log.Printf("[Follow] %v", err)
		http.Error(w, "Error removing follow relationship", http.StatusInternalServerError)
		return
	}
	log.Printf("[Follow] User %d unfollowed %d", me.ID, target.ID)
	httpjson.Message(w, http.StatusOK, "Successfully unfollowed user")
}

// Status reports the follow relation between the caller and ?username=.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	me, target, ok := h.resolve(w, r)
	if !ok {
		return
	}

	following, err := h.graph.IsFollowing(r.Context(), me.ID, target.ID)
	if err != nil {
		log.Printf("[Follow] %v", err)
		http.Error(w, "Database error checking follow status", http.StatusInternalServerError)
		return
	}
	followsYou, err := h.graph.IsFollowing(r.Context(), target.ID, me.ID)
	if err != nil {
		log.Printf("[Follow] %v", err)
		http.Error(w, "Database error checking follow status", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{
		"is_following": following,
		"follows_you":  followsYou,
	})
}

// Followers lists who follows ?username=, defaulting to the caller.
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.graph.Followers)
}

// Following lists who ?username= follows, defaulting to the caller.
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.graph.Followed)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, query func(int) *UserQuery) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	users, err := query(userID).All(r.Context())
	if err != nil {
		log.Printf("[Follow] Listing follows for id %d: %v", userID, err)
		http.Error(w, "Database error retrieving follows", http.StatusInternalServerError)
		return
	}

	listed := make([]user.Public, 0, len(users))
	for _, u := range users {
		listed = append(listed, u.Public(listAvatarSize))
	}
	httpjson.Write(w, http.StatusOK, listed)
}

// subject is the user named by ?username=, or the caller when absent.
func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (int, bool) {
	username := r.URL.Query().Get("username")
	if username == "" {
		identity, ok := user.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return 0, false
		}
		return identity.ID, true
	}

	u, err := h.users.ByUsername(r.Context(), username)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return 0, false
	} else if err != nil {
		log.Printf("[Follow] Database error getting user by username '%s': %v", username, err)
		http.Error(w, "Database error while finding user", http.StatusInternalServerError)
		return 0, false
	}
	return u.ID, true
}
