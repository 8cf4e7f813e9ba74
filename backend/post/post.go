package post

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"microblog/backend/pkg/httpjson"
	"microblog/backend/user"
)

// Handler serves post creation and the feed endpoints.
type Handler struct {
	posts   *Store
	users   *user.Store
	perPage int
}

// NewHandler wires the post endpoints with perPage posts per page.
func NewHandler(posts *Store, users *user.Store, perPage int) *Handler {
	return &Handler{posts: posts, users: users, perPage: perPage}
}

// CreatePost publishes a post as the caller.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	me, ok := user.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	p := Post{UserID: me.ID, Author: me.Username, Body: req.Body}
	if err := h.posts.Create(r.Context(), &p); err != nil {
		if errors.Is(err, ErrEmptyBody) || errors.Is(err, ErrBodyTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[Posts] Insert failed: %v", err)
		http.Error(w, "Error saving post", http.StatusInternalServerError)
		return
	}

	log.Printf("[Posts] User %d created new post (ID: %d)", me.ID, p.ID)
	httpjson.Write(w, http.StatusCreated, p)
}

// Feed returns the caller's followed-posts feed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	me, ok := user.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, err := h.posts.FollowedPostsPage(r.Context(), me.ID, pageParam(r), h.perPage)
	if err != nil {
		log.Printf("[Posts] Feed query failed for id %d: %v", me.ID, err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

// Explore returns every post, newest first.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Explore(r.Context(), pageParam(r), h.perPage)
	if err != nil {
		log.Printf("[Posts] Explore query failed: %v", err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

// UserPosts returns the posts written by ?username=.
func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Username parameter is required", http.StatusBadRequest)
		return
	}
	author, err := h.users.ByUsername(r.Context(), username)
	if errors.Is(err, user.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("[Posts] User lookup failed for '%s': %v", username, err)
		http.Error(w, "Database error while finding user", http.StatusInternalServerError)
		return
	}

	page, err := h.posts.ByAuthor(r.Context(), author.ID, pageParam(r), h.perPage)
	if err != nil {
		log.Printf("[Posts] Author query failed for id %d: %v", author.ID, err)
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

// pageParam reads ?page=, defaulting to 1 for missing or invalid values.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
