package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns a count of actions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM xcam_actions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("action stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates action state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusInProgress:
			health.InProgress += count
		case StatusDone:
			health.Done += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// actionTableColumns is the schema the health check validates against.
var actionTableColumns = []string{"id", "command", "additions", "status", "created_at", "updated_at"}

// CheckHealth returns diagnostic information about the action database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("action database path is unknown")
	}
	exists, err := statDatabase(s.path)
	if err != nil {
		return health, err
	}
	health.DatabaseExists = exists
	if !exists {
		return health, nil
	}
	if s.db == nil {
		return health, errors.New("action database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping action database: %w", err)
	}
	health.DatabaseReadable = true

	tableExists, err := s.actionTableExists(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, err
	}
	health.TableExists = tableExists

	if tableExists {
		columns, err := s.actionTableInfo(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.ColumnsPresent = columns
		health.MissingColumns = missingColumns(actionTableColumns, columns)

		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM xcam_actions")
		if err := row.Scan(&health.TotalActions); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count actions: %w", err)
		}
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")

	return health, nil
}

func statDatabase(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat action database: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("action database path %q is a directory", path)
	}
	return true, nil
}

func (s *Store) actionTableExists(ctx context.Context) (bool, error) {
	var name string
	row := s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'xcam_actions'")
	switch err := row.Scan(&name); {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("query table info: %w", err)
	}
}

func (s *Store) actionTableInfo(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(xcam_actions)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return columns, nil
}

func missingColumns(expected, present []string) []string {
	seen := make(map[string]struct{}, len(present))
	for _, col := range present {
		seen[col] = struct{}{}
	}
	var missing []string
	for _, col := range expected {
		if _, ok := seen[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
