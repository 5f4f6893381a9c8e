package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/streak-oracle/internal/config"
)

// schema creates the ledger table. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_records (
		id            UUID PRIMARY KEY,
		source        TEXT NOT NULL,
		target_index  BIGINT NOT NULL,
		predicted     TEXT NOT NULL,
		probability_a DOUBLE PRECISION NOT NULL,
		confidence    DOUBLE PRECISION NOT NULL,
		actual        TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_records_source_created
		ON prediction_records (source, created_at DESC)`,
}

// Initialize creates a connection pool and makes sure the ledger schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("database is disabled in configuration")
	}

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
