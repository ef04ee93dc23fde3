// Package config loads application configuration from environment variables.
//
// A .env file in the working directory is loaded first (if present) so local
// development doesn't need a wall of exports; real environments set the
// variables directly and have no .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; defaults cover everything except JWTSecret.
type Config struct {
	Port     int    // PORT — HTTP port to listen on (default 8080)
	DBPath   string // DB_PATH — SQLite database file (default data/taskboard.db)
	LogLevel string // LOG_LEVEL — debug, info, warn, error (default info)

	JWTSecret  string        // JWT_SECRET — HMAC signing key, required, min 16 chars
	TokenTTL   time.Duration // TOKEN_TTL_MIN — access token lifetime in minutes (default 30)
	BcryptCost int           // BCRYPT_COST — password hashing work factor (default 12)

	// GitHub OAuth sign-in. Optional: when ClientID is empty the OAuth
	// routes are simply not registered.
	GitHubClientID     string // GITHUB_CLIENT_ID
	GitHubClientSecret string // GITHUB_CLIENT_SECRET
	GitHubCallbackURL  string // GITHUB_CALLBACK_URL (default derived from PORT)
}

// Load reads the environment (plus an optional .env file) into a Config.
//
// Only JWT_SECRET is mandatory — the token service refuses weak secrets, so
// failing fast here beats serving requests that can't be authenticated.
func Load() (Config, error) {
	// Ignore the error: a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:               8080,
		DBPath:             "data/taskboard.db",
		LogLevel:           "info",
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           30 * time.Minute,
		BcryptCost:         12,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("TOKEN_TTL_MIN"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("config: invalid TOKEN_TTL_MIN %q", v)
		}
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid BCRYPT_COST %q", v)
		}
		cfg.BcryptCost = cost
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required (try: openssl rand -hex 32)")
	}

	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}
