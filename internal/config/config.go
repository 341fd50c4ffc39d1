// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoToken is returned by RequireToken when TELEGRAM_BOT_TOKEN is unset.
var ErrNoToken = errors.New("TELEGRAM_BOT_TOKEN is required")

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	FeedsFile        string
	CacheTTL         time.Duration
	FetchTimeout     time.Duration
	MaxArticleAge    time.Duration
	PushSchedule     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabasePath:     envOr("DATABASE_PATH", "./data/headlines.db"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		FeedsFile:        os.Getenv("FEEDS_FILE"),
		PushSchedule:     envOr("PUSH_SCHEDULE", "@every 5m"),
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			cfg.AllowedUsers = append(cfg.AllowedUsers, uid)
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"CACHE_TTL", 30 * time.Second, &cfg.CacheTTL},
		{"FETCH_TIMEOUT", 8 * time.Second, &cfg.FetchTimeout},
		{"MAX_ARTICLE_AGE", 96 * time.Hour, &cfg.MaxArticleAge},
	}
	for _, d := range durations {
		v, err := envDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = v
	}

	return cfg, nil
}

// RequireToken fails when no bot token is configured. Only the bot needs one.
func (c *Config) RequireToken() error {
	if c.TelegramBotToken == "" {
		return ErrNoToken
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, raw)
	}
	return d, nil
}
