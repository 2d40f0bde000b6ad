// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/levutuan/tragia/internal/auth"
	"github.com/levutuan/tragia/internal/store"
)

// Config holds all server settings.
type Config struct {
	Port        string
	DataDir     string
	APIKeys     []string
	CORSOrigins string

	// Remote repository; empty RemoteURL disables background sync.
	RemoteURL    string
	RemoteAPIKey string
	SyncSchedule string

	CacheTTL  time.Duration
	RateRPS   float64
	RateBurst int
}

// Load reads the environment (after best-effort loading a .env file) and
// validates required settings.
func Load() (Config, error) {
	// Missing .env is fine in production where real env vars are set.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		DataDir:      os.Getenv("DATA_DIR"),
		APIKeys:      auth.ParseAPIKeys(os.Getenv("API_KEYS")),
		CORSOrigins:  getenv("CORS_ORIGINS", "*"),
		RemoteURL:    os.Getenv("REMOTE_URL"),
		RemoteAPIKey: os.Getenv("REMOTE_API_KEY"),
		SyncSchedule: getenv("SYNC_SCHEDULE", "@every 5m"),
		CacheTTL:     cast.ToDuration(getenv("CACHE_TTL", store.DefaultCacheTTL.String())),
		RateRPS:      cast.ToFloat64(getenv("RATE_RPS", "100")),
		RateBurst:    cast.ToInt(getenv("RATE_BURST", "20")),
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("DATA_DIR environment variable is required")
	}
	if cfg.RateRPS <= 0 || cfg.RateBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_RPS and RATE_BURST must be positive")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
