package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var sessionSchema string

// schemaSteps brings an archive from user_version i to i+1. Steps are only
// ever appended.
var schemaSteps = []string{
	sessionSchema,
	`CREATE INDEX IF NOT EXISTS idx_entries_turn ON memory_entries(session_id, turn)`,
}

// SchemaVersion returns the archive's schema version, tracked in SQLite's
// user_version pragma.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// migrate applies the steps past the current version, one transaction per
// step.
func (db *DB) migrate(ctx context.Context) error {
	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > len(schemaSteps) {
		return fmt.Errorf("archive schema version %d is newer than this binary (%d)", current, len(schemaSteps))
	}

	for v := current; v < len(schemaSteps); v++ {
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, schemaSteps[v]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1))
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply schema step %d: %w", v+1, err)
		}
	}
	return nil
}
