package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/atelierhq/studioledger/internal/infrastructure/config"
	"github.com/atelierhq/studioledger/internal/rates"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RATE_API_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.RateAPIURL == "" {
		t.Fatalf("expected default rate API URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	// The deployed quote-cache TTL must match what the rates package
	// considers fresh.
	if cfg.RateTTL != rates.DefaultTTL {
		t.Fatalf("expected default rate TTL of %s, got %s", rates.DefaultTTL, cfg.RateTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_API_URL", "https://rates.example.com/latest")
	t.Setenv("RATE_TTL", "10m")
	t.Setenv("RATE_LIMIT_RPS", "10")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.RateAPIURL != "https://rates.example.com/latest" || cfg.RateTTL != 10*time.Minute {
		t.Fatalf("expected rate settings to be set, got url=%s ttl=%s", cfg.RateAPIURL, cfg.RateTTL)
	}

	if cfg.RateLimitRPS != 10 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
