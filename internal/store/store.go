package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/onnwee/forcemap/internal/metrics"
)

// ErrNotFound is returned when no run exists for the given key.
var ErrNotFound = errors.New("store: layout run not found")

// Run is a persisted layout computation.
type Run struct {
	Key           string
	Params        json.RawMessage
	Positions     json.RawMessage
	KineticEnergy float64
	Iterations    int
	ElapsedMS     int64
	CreatedAt     time.Time
}

// Store persists layout runs in PostgreSQL.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS layout_runs (
	key            TEXT PRIMARY KEY,
	params         JSONB NOT NULL,
	positions      JSONB,
	kinetic_energy DOUBLE PRECISION NOT NULL DEFAULT 0,
	iterations     INTEGER NOT NULL DEFAULT 0,
	elapsed_ms     BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Open connects to PostgreSQL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun upserts a layout run keyed by its parameter hash.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	start := time.Now()

	positions := pqtype.NullRawMessage{RawMessage: run.Positions, Valid: run.Positions != nil}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO layout_runs (key, params, positions, kinetic_energy, iterations, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			positions = EXCLUDED.positions,
			kinetic_energy = EXCLUDED.kinetic_energy,
			iterations = EXCLUDED.iterations,
			elapsed_ms = EXCLUDED.elapsed_ms,
			created_at = now()
	`, run.Key, []byte(run.Params), positions, run.KineticEnergy, run.Iterations, run.ElapsedMS)

	metrics.StoreOperationDuration.WithLabelValues("save_run").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreOperationErrors.WithLabelValues("save_run").Inc()
		return fmt.Errorf("store: save run: %w", err)
	}
	return nil
}

// GetRun fetches a layout run by key.
func (s *Store) GetRun(ctx context.Context, key string) (Run, error) {
	start := time.Now()

	var run Run
	var positions pqtype.NullRawMessage
	err := s.db.QueryRowContext(ctx, `
		SELECT key, params, positions, kinetic_energy, iterations, elapsed_ms, created_at
		FROM layout_runs WHERE key = $1
	`, key).Scan(&run.Key, (*[]byte)(&run.Params), &positions, &run.KineticEnergy, &run.Iterations, &run.ElapsedMS, &run.CreatedAt)

	metrics.StoreOperationDuration.WithLabelValues("get_run").Observe(time.Since(start).Seconds())
	if err == sql.ErrNoRows {
		return Run{}, ErrNotFound
	}
	if err != nil {
		metrics.StoreOperationErrors.WithLabelValues("get_run").Inc()
		return Run{}, fmt.Errorf("store: get run: %w", err)
	}
	if positions.Valid {
		run.Positions = positions.RawMessage
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, params, kinetic_energy, iterations, elapsed_ms, created_at
		FROM layout_runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		metrics.StoreOperationErrors.WithLabelValues("list_runs").Inc()
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.Key, (*[]byte)(&run.Params), &run.KineticEnergy, &run.Iterations, &run.ElapsedMS, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
