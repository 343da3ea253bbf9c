// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Backing store (Redis). Optional: when unset the store runs in
	// degraded mode where reads return empty snapshots and writes are
	// no-ops. The redirect path must keep working without infrastructure.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Base URL for short links (e.g., https://zonl.ink)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Amazon defaults applied when a link record carries no overrides.
	DefaultRegionDomain string `env:"DEFAULT_REGION_DOMAIN" envDefault:"com"`
	DefaultAffiliateTag string `env:"DEFAULT_AFFILIATE_TAG" envDefault:""`

	// Geolocation
	GeoIPDBPath       string        `env:"GEOIP_DB_PATH" envDefault:""`
	GeoTimeout        time.Duration `env:"GEO_TIMEOUT" envDefault:"2s"`
	GeoDefaultCountry string        `env:"GEO_DEFAULT_COUNTRY" envDefault:""`

	// Admin override token for link CRUD (used by the external admin console).
	AdminToken string `env:"ADMIN_TOKEN" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for the redirect path (per IP)
	RateLimitRedirectEnabled bool `env:"RATE_LIMIT_REDIRECT_ENABLED" envDefault:"true"`
	RateLimitRedirectRPS     int  `env:"RATE_LIMIT_REDIRECT_RPS" envDefault:"100"`
	RateLimitRedirectBurst   int  `env:"RATE_LIMIT_REDIRECT_BURST" envDefault:"20"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
