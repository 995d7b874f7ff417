package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/wizard-trials/internal/domain"
	"github.com/ashureev/wizard-trials/internal/shared"
	_ "modernc.org/sqlite"
)

var _ Repository = (*SQLiteStore)(nil)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS players (
		player_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		player_name TEXT NOT NULL,
		house TEXT NOT NULL,
		points INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_points ON runs(points DESC, finished_at ASC);
	CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id, finished_at DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetPlayer retrieves a player by ID.
func (s *SQLiteStore) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	query := `
		SELECT player_id, name, last_seen_at, created_at, updated_at
		FROM players WHERE player_id = ?`

	row := s.db.QueryRowContext(ctx, query, playerID)

	var p domain.Player
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&p.PlayerID, &p.Name, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan player row: %w", err)
	}

	p.LastSeenAt = time.Unix(lastSeen, 0)
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}

// UpsertPlayer creates or updates a player record.
func (s *SQLiteStore) UpsertPlayer(ctx context.Context, p *domain.Player) error {
	query := `
	INSERT INTO players (player_id, name, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(player_id) DO UPDATE SET
		name = excluded.name,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	return shared.RetryOnConflict(ctx, s.retry, "upsert player", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			p.PlayerID, p.Name,
			p.LastSeenAt.Unix(), p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert player: %w", err)
		}
		return nil
	})
}

// UpdateLastSeen updates the last_seen_at timestamp for a player.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, playerID string, lastSeen time.Time) error {
	query := `UPDATE players SET last_seen_at = ?, updated_at = ? WHERE player_id = ?`

	var rows int64
	err := shared.RetryOnConflict(ctx, s.retry, "update last_seen", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), playerID)
		if err != nil {
			return fmt.Errorf("update last_seen: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "player_id", playerID)
	}
	return nil
}

// RecordRun appends a finished run to the results log.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *domain.Run) error {
	query := `
	INSERT INTO runs (run_id, player_id, player_name, house, points, completed, outcome, title, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return shared.RetryOnConflict(ctx, s.retry, "record run", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			run.RunID, run.PlayerID, run.PlayerName, run.House,
			run.Points, run.Completed, string(run.Outcome), run.Title,
			run.FinishedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// TopRuns returns the best runs, highest score first and earliest first on ties.
func (s *SQLiteStore) TopRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	query := `
		SELECT run_id, player_id, player_name, house, points, completed, outcome, title, finished_at
		FROM runs ORDER BY points DESC, finished_at ASC LIMIT ?`
	return s.queryRuns(ctx, "top runs", query, limit)
}

// PlayerRuns returns a player's most recent runs.
func (s *SQLiteStore) PlayerRuns(ctx context.Context, playerID string, limit int) ([]*domain.Run, error) {
	query := `
		SELECT run_id, player_id, player_name, house, points, completed, outcome, title, finished_at
		FROM runs WHERE player_id = ? ORDER BY finished_at DESC LIMIT ?`
	return s.queryRuns(ctx, "player runs", query, playerID, limit)
}

func (s *SQLiteStore) queryRuns(ctx context.Context, name, query string, args ...any) ([]*domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close run rows", "query", name, "error", closeErr)
		}
	}()

	var runs []*domain.Run
	for rows.Next() {
		var run domain.Run
		var outcome string
		var finishedAt int64

		if err := rows.Scan(
			&run.RunID, &run.PlayerID, &run.PlayerName, &run.House,
			&run.Points, &run.Completed, &outcome, &run.Title, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", name, err)
		}

		run.Outcome = domain.RunOutcome(outcome)
		run.FinishedAt = time.Unix(finishedAt, 0)
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
