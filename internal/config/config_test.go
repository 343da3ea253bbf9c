package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %s, want development", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("AppPort = %d, want 8080", cfg.AppPort)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %s, want empty (degraded mode by default)", cfg.RedisURL)
	}
	if cfg.DefaultRegionDomain != "com" {
		t.Errorf("DefaultRegionDomain = %s, want com", cfg.DefaultRegionDomain)
	}
	if cfg.GeoTimeout != 2*time.Second {
		t.Errorf("GeoTimeout = %v, want 2s", cfg.GeoTimeout)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
	if !cfg.RateLimitRedirectEnabled {
		t.Error("redirect rate limiting should default on")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be true for the default env")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("DEFAULT_REGION_DOMAIN", "co.uk")
	t.Setenv("GEO_TIMEOUT", "500ms")
	t.Setenv("RATE_LIMIT_REDIRECT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
	if cfg.AppPort != 9090 {
		t.Errorf("AppPort = %d, want 9090", cfg.AppPort)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("RedisURL = %s", cfg.RedisURL)
	}
	if cfg.DefaultRegionDomain != "co.uk" {
		t.Errorf("DefaultRegionDomain = %s, want co.uk", cfg.DefaultRegionDomain)
	}
	if cfg.GeoTimeout != 500*time.Millisecond {
		t.Errorf("GeoTimeout = %v, want 500ms", cfg.GeoTimeout)
	}
	if cfg.RateLimitRedirectEnabled {
		t.Error("RateLimitRedirectEnabled should be false")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Error("Load should fail on a non-numeric port")
	}
}
