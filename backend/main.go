// Package main runs the microblog HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microblog/backend/config"
	"microblog/backend/notification"
	"microblog/backend/pkg/db/sqlite"
	"microblog/backend/user"
)

const (
	shutdownTimeout    = 5 * time.Second
	limiterSweepPeriod = 10 * time.Minute
)

func main() {
	log.SetPrefix("[MICROBLOG] ")
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	sqlDB, err := sqlite.Connect(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	limiter := user.NewLimiter(cfg.LoginRate, cfg.LoginBurst)
	go limiter.Run(ctx, limiterSweepPeriod)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(sqlDB, cfg, notification.NewHub(), limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server running on %s", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Printf("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
