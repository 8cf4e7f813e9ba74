package main

import (
	"database/sql"
	"net/http"

	"microblog/backend/config"
	"microblog/backend/follower"
	"microblog/backend/notification"
	"microblog/backend/post"
	"microblog/backend/user"
)

func newRouter(sqlDB *sql.DB, cfg config.Config, hub *notification.Hub, limiter *user.Limiter) http.Handler {
	users := user.NewStore(sqlDB)
	graph := follower.NewGraph(sqlDB)
	posts := post.NewStore(sqlDB)
	notifications := notification.NewStore(sqlDB)

	userHandler := user.NewHandler(users,
		user.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		limiter,
		graph)
	followHandler := follower.NewHandler(graph, users, notification.NewService(notifications, hub))
	postHandler := post.NewHandler(posts, users, cfg.PostsPerPage)
	notificationHandler := notification.NewHandler(notifications)
	auth := userHandler.Authenticated

	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", userHandler.Register)
	mux.HandleFunc("POST /login", userHandler.Login)
	mux.HandleFunc("GET /user/{username}", userHandler.Profile)
	mux.HandleFunc("POST /user/about", auth(userHandler.UpdateAbout))

	mux.HandleFunc("POST /follow", auth(followHandler.Follow))
	mux.HandleFunc("DELETE /unfollow", auth(followHandler.Unfollow))
	mux.HandleFunc("GET /followers", auth(followHandler.Followers))
	mux.HandleFunc("GET /following", auth(followHandler.Following))
	mux.HandleFunc("GET /user/follow-status", auth(followHandler.Status))

	mux.HandleFunc("POST /posts", auth(postHandler.CreatePost))
	mux.HandleFunc("GET /posts/feed", auth(postHandler.Feed))
	mux.HandleFunc("GET /posts/explore", postHandler.Explore)
	mux.HandleFunc("GET /posts/user", postHandler.UserPosts)

	mux.HandleFunc("GET /notifications", auth(notificationHandler.List))
	mux.HandleFunc("POST /notifications/read", auth(notificationHandler.MarkRead))
	mux.HandleFunc("GET /ws", auth(hub.ServeWS))

	return disableCORS(mux)
}

func disableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
