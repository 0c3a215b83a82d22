package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current action schema version. Bump this when the
// schema changes; users clear the database to adopt the new schema.
const schemaVersion = 1

// schemaComponent keys this package's row in the shared schema_version table.
// The camera registry shares the database file and records its own row.
const schemaComponent = "actions"

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (
            component TEXT PRIMARY KEY,
            version INTEGER NOT NULL
        )`,
	); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version WHERE component = ?", schemaComponent,
	).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.createSchema(ctx)
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'xcam action clear --all' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (component, version) VALUES (?, ?)",
		schemaComponent, schemaVersion,
	); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
