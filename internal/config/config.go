/**
 * @description
 * Configuration loader for the sports odds backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URL, feed API key) are missing.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Feed   FeedConfig
	Sync   SyncConfig
	Query  QueryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development", "staging" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// FeedConfig holds the external fixtures/odds provider settings
type FeedConfig struct {
	BaseURL string
	APIKey  string
	// RequestsPerMinute is the provider's declared rate-limit headroom.
	RequestsPerMinute int
	Timeout           time.Duration
}

// SyncConfig holds the sync orchestrator settings
type SyncConfig struct {
	Interval    time.Duration
	WindowHours int
	MaxAttempts int
	// JobSecret protects the manual sync trigger endpoint.
	JobSecret string
}

// QueryConfig holds read-path settings
type QueryConfig struct {
	// DefaultTimezone is applied whenever a request omits or misspells
	// its timezone parameter. Query, cache key and response annotation
	// all resolve through this single default.
	DefaultTimezone string
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Feed: FeedConfig{
			BaseURL:           getEnv("ODDS_FEED_URL", "https://api.oddsfeed.example.com/v3"),
			APIKey:            sanitizeCredential(getEnv("ODDS_FEED_API_KEY", "")),
			RequestsPerMinute: getEnvAsInt("ODDS_FEED_RPM", 60),
			Timeout:           time.Duration(getEnvAsInt("ODDS_FEED_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Sync: SyncConfig{
			Interval:    time.Duration(getEnvAsInt("SYNC_INTERVAL_MINUTES", 5)) * time.Minute,
			WindowHours: getEnvAsInt("SYNC_WINDOW_HOURS", 24),
			MaxAttempts: getEnvAsInt("SYNC_MAX_ATTEMPTS", 4),
			JobSecret:   sanitizeCredential(getEnv("JOB_SYNC_SECRET", "")),
		},
		Query: QueryConfig{
			DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "America/Lima"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Feed.APIKey == "" && cfg.Server.Env != "test" {
		return fmt.Errorf("ODDS_FEED_API_KEY is required")
	}
	if cfg.Sync.JobSecret == "" && cfg.Server.Env == "production" {
		logger.Error("Warning: JOB_SYNC_SECRET is missing. Manual sync endpoint will reject all requests.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
