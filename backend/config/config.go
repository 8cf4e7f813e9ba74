// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the settings for the microblog server.
type Config struct {
	Addr         string        `env:"MICROBLOG_ADDR" envDefault:":8088"`
	DBPath       string        `env:"MICROBLOG_DB_PATH" envDefault:"microblog.db"`
	JWTSecret    string        `env:"MICROBLOG_JWT_SECRET,required,notEmpty"`
	TokenTTL     time.Duration `env:"MICROBLOG_TOKEN_TTL" envDefault:"24h"`
	PostsPerPage int           `env:"MICROBLOG_POSTS_PER_PAGE" envDefault:"25"`
	LoginRate    float64       `env:"MICROBLOG_LOGIN_RATE" envDefault:"1"`
	LoginBurst   int           `env:"MICROBLOG_LOGIN_BURST" envDefault:"5"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads any of the given dotenv files that exist, then parses Config.
// Variables already present in the environment win over file values.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.PostsPerPage <= 0 {
		return Config{}, fmt.Errorf("posts per page must be positive, got %d", cfg.PostsPerPage)
	}
	return cfg, nil
}
