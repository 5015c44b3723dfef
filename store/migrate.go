package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// migration is one additive schema step. Steps never remove or rename
// columns; they only create tables/indexes or ADD COLUMN.
type migration struct {
	name string
	sql  string
}

// migrations is applied in order; each step's index (1-based) becomes the
// PRAGMA user_version once applied. Adding a new step means appending here
// — never edit an already-shipped step's SQL.
var migrations = []migration{
	{name: "initial schema", sql: schemaV1},
	{name: "trade price-phase timestamp", sql: `
		ALTER TABLE trades ADD COLUMN price_enriched_at TIMESTAMP;
	`},
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for i, m := range migrations {
		step := i + 1
		if step <= version {
			continue
		}

		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", step, m.name, err)
		}

		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step)); err != nil {
			return fmt.Errorf("set user_version=%d: %w", step, err)
		}
	}

	return nil
}

// applyMigration runs one step's SQL inside a transaction, swallowing
// duplicate-column / already-exists errors so that a migration re-applied
// against a partially-migrated database (e.g. after a crash between the
// ALTER and the user_version bump) is a no-op rather than a fatal error.
func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		_ = tx.Rollback()

		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists") {
			return nil
		}
		return err
	}

	return tx.Commit()
}
