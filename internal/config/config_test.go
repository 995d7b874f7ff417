package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "./data/trials.db" {
		t.Errorf("Expected default DB path, got %q", cfg.DBPath)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Errorf("Expected 30m idle TTL, got %v", cfg.SessionIdleTTL)
	}
	if cfg.RateLimit.RPS != 10 || cfg.RateLimit.Burst != 20 {
		t.Errorf("Unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Live.ReplaySize != 64 || cfg.Live.WriteTimeout != 5*time.Second {
		t.Errorf("Unexpected live defaults: %+v", cfg.Live)
	}
	if cfg.GRPCHealthAddr != "" {
		t.Errorf("Expected gRPC health disabled by default, got %q", cfg.GRPCHealthAddr)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode without FRONTEND_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_IDLE_TTL", "45s")
	t.Setenv("EVENT_REPLAY_SIZE", "8")
	t.Setenv("FRONTEND_URL", "https://trials.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" || cfg.SessionIdleTTL != 45*time.Second || cfg.Live.ReplaySize != 8 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production mode with a public FRONTEND_URL")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"SESSION_IDLE_TTL", "soon", "parse env:"},
		{"RATE_LIMIT_BURST", "0", "RATE_LIMIT_BURST"},
		{"HALL_OF_FAME_LIMIT", "-3", "HALL_OF_FAME_LIMIT"},
		{"SESSION_SWEEP_INTERVAL", "-1s", "SESSION_SWEEP_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
