package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Enqueue inserts a new pending action. The additions payload must be a JSON
// object (or empty, which normalizes to {}).
func (s *Store) Enqueue(ctx context.Context, command, additions string) (*Action, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("command is required")
	}
	normalized, err := NormalizeAdditions(additions)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO xcam_actions (command, additions, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		command,
		normalized,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert action: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an action by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Action, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM xcam_actions WHERE id = ?`, id)
	action, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}
	return action, nil
}

// List returns actions filtered by status set (or all actions when no status
// is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Action, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + actionColumns + ` FROM xcam_actions`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// Remove deletes an action by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM xcam_actions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete action: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all actions.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM xcam_actions`)
	if err != nil {
		return 0, fmt.Errorf("clear actions: %w", err)
	}
	return res.RowsAffected()
}

// ClearDone removes only completed actions.
func (s *Store) ClearDone(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM xcam_actions WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("clear done actions: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed actions.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM xcam_actions WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed actions: %w", err)
	}
	return res.RowsAffected()
}
