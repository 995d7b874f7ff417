// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT"         envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
	DBPath      string `env:"DB_PATH"      envDefault:"./data/trials.db"`

	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL"       envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	RunRecordTimeout     time.Duration `env:"RUN_RECORD_TIMEOUT"     envDefault:"5s"`
	HallOfFameLimit      int           `env:"HALL_OF_FAME_LIMIT"     envDefault:"20"`

	// GRPCHealthAddr enables the gRPC health endpoint when set, e.g. ":9090".
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`

	RateLimit RateLimitConfig
	Live      LiveConfig
}

// RateLimitConfig bounds how fast a single player may send game actions.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"10"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// LiveConfig tunes the WebSocket event stream.
type LiveConfig struct {
	WriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT"  envDefault:"5s"`
	ReplaySize   int           `env:"EVENT_REPLAY_SIZE" envDefault:"64"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.RunRecordTimeout <= 0 {
		return fmt.Errorf("RUN_RECORD_TIMEOUT must be > 0")
	}
	if c.HallOfFameLimit <= 0 {
		return fmt.Errorf("HALL_OF_FAME_LIMIT must be > 0")
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0")
	}
	if c.Live.WriteTimeout <= 0 {
		return fmt.Errorf("WS_WRITE_TIMEOUT must be > 0")
	}
	if c.Live.ReplaySize <= 0 {
		return fmt.Errorf("EVENT_REPLAY_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
