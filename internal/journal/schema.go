package journal

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] moves a database from user_version i to i+1.
var migrations = []string{
	schemaSQL,
}

// ErrSchemaMismatch is returned for a journal written by a newer audiopack.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate brings the database up to len(migrations), tracked in SQLite's
// user_version pragma.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	latest := len(migrations)
	if version > latest {
		return fmt.Errorf("%w: %s is at version %d, this build knows %d", ErrSchemaMismatch, s.path, version, latest)
	}
	if version == latest {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for v := version; v < latest; v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("migrate to version %d: %w", v+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", latest)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
