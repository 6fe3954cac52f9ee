// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `envconfig:"PORT" default:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool `envconfig:"MIGRATE_ON_START" default:"false"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// JWTSecret verifies HS256 bearer tokens. Required.
	JWTSecret string `envconfig:"JWT_SECRET"`

	// RedisAddr enables the resident directory cache when set (host:port).
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// ResidentCacheTTL is how long a cached directory entry lives.
	ResidentCacheTTL time.Duration `envconfig:"RESIDENT_CACHE_TTL" default:"5m"`

	// AMQPURL enables booking event publishing when set.
	AMQPURL string `envconfig:"AMQP_URL"`

	// AMQPExchange is the topic exchange booking events are published to.
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"laundry.bookings"`

	// ReportTimezone is the IANA zone usage reports assign months in.
	ReportTimezone string `envconfig:"REPORT_TIMEZONE" default:"UTC"`

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// RateLimitPerMinute is the per-client request budget. 0 disables it.
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves ReportTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: REPORT_TIMEZONE: %w", err)
	}
	return loc, nil
}

// trimAll trims each entry and drops empty ones. envconfig splits on commas
// but keeps surrounding spaces.
func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
