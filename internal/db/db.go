package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() {
	d.Pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
    id          UUID PRIMARY KEY,
    number      INTEGER NOT NULL,
    budget_ms   BIGINT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ,
    outcome     TEXT NOT NULL,
    final_stage TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS round_events (
    id       UUID PRIMARY KEY,
    round_id UUID NOT NULL REFERENCES rounds(id),
    kind     TEXT NOT NULL,
    stage    TEXT NOT NULL,
    deadline TIMESTAMPTZ,
    at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS round_events_round_id_idx ON round_events(round_id);`

// Migrate creates the history tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
