package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("API_KEYS", "key1, key2,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CacheTTL != 5*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "key1" {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
	if cfg.SyncSchedule != "@every 5m" {
		t.Errorf("SyncSchedule = %q", cfg.SyncSchedule)
	}
}

func TestLoadRequiresDataDir(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATA_DIR")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CACHE_TTL", "10s")
	t.Setenv("RATE_RPS", "50")
	t.Setenv("RATE_BURST", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != 10*time.Second || cfg.RateRPS != 50 || cfg.RateBurst != 5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}
