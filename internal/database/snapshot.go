// Package database persists the application state blob. The core never
// touches it directly; the dispatcher writes snapshots through the
// narrow SnapshotSaver seam and main loads the latest one at startup.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS state_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// keepSnapshots bounds table growth; older rows are pruned on save.
const keepSnapshots = 100

// SnapshotStore stores state snapshots in Postgres.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore over a pgx pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Bootstrap creates the snapshot table if it does not exist.
func (s *SnapshotStore) Bootstrap(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create state_snapshots: %w", err)
	}
	return nil
}

// Save appends a snapshot and prunes rows beyond the retention window.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO state_snapshots (payload) VALUES ($1)`, blob); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM state_snapshots
		 WHERE id <= (SELECT max(id) FROM state_snapshots) - $1`, keepSnapshots); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent snapshot blob, or nil when none
// has been saved yet.
func (s *SnapshotStore) LoadLatest(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM state_snapshots ORDER BY id DESC LIMIT 1`).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return blob, nil
}
