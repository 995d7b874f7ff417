// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/wizard-trials/internal/domain"
)

// Repository defines the interface for persisting players and finished runs.
type Repository interface {
	// GetPlayer retrieves a player by ID. It returns nil, nil when none exists.
	GetPlayer(ctx context.Context, playerID string) (*domain.Player, error)

	// UpsertPlayer creates or updates a player record.
	UpsertPlayer(ctx context.Context, player *domain.Player) error

	// UpdateLastSeen updates the last_seen_at timestamp for a player.
	UpdateLastSeen(ctx context.Context, playerID string, lastSeen time.Time) error

	// RecordRun appends a finished run to the results log.
	RecordRun(ctx context.Context, run *domain.Run) error

	// TopRuns returns the best runs, highest score first.
	TopRuns(ctx context.Context, limit int) ([]*domain.Run, error)

	// PlayerRuns returns a player's most recent runs, newest first.
	PlayerRuns(ctx context.Context, playerID string, limit int) ([]*domain.Run, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
