package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNext atomically flips the oldest pending action to in_progress and
// returns it. Returns nil when the queue holds no pending work. The claim is a
// single UPDATE so concurrent workers never receive the same action.
func (s *Store) ClaimNext(ctx context.Context) (*Action, error) {
	ctx = ensureContext(ctx)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	var (
		action *Action
		opErr  error
	)
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE xcam_actions
             SET status = ?, updated_at = ?
             WHERE id = (
                 SELECT id FROM xcam_actions
                 WHERE status = ?
                 ORDER BY created_at, id
                 LIMIT 1
             )
             RETURNING `+actionColumns,
			StatusInProgress,
			timestamp,
			StatusPending,
		)
		action, opErr = scanAction(row)
		return opErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next action: %w", err)
	}
	return action, nil
}

// MarkDone transitions an in-progress action to done. A non-empty result is
// merged into the additions payload under the "result" key so callers can
// inspect handler output later.
func (s *Store) MarkDone(ctx context.Context, id int64, result map[string]any) error {
	mutate := func(additions string) (string, error) {
		if len(result) == 0 {
			return additions, nil
		}
		return mergeAdditions(additions, "result", result)
	}
	return s.transition(ctx, id, StatusInProgress, StatusDone, mutate)
}

// MarkFailed transitions an in-progress action to failed, merging the failure
// note into the additions payload under the "error" key.
func (s *Store) MarkFailed(ctx context.Context, id int64, note string) error {
	mutate := func(additions string) (string, error) {
		if note == "" {
			return additions, nil
		}
		return mergeAdditions(additions, "error", note)
	}
	return s.transition(ctx, id, StatusInProgress, StatusFailed, mutate)
}

// transition flips a single action from one status to another inside a
// transaction, applying the mutate hook to the additions payload.
func (s *Store) transition(ctx context.Context, id int64, from, to Status, mutate func(string) (string, error)) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transition tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var (
			current   string
			additions sql.NullString
		)
		row := tx.QueryRowContext(ctx, `SELECT status, additions FROM xcam_actions WHERE id = ?`, id)
		if err := row.Scan(&current, &additions); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrNotFound, id)
			}
			return fmt.Errorf("read action for transition: %w", err)
		}
		if Status(current) != from {
			return fmt.Errorf("%w: %s -> %s for action %d (currently %s)", ErrInvalidTransition, from, to, id, current)
		}

		payload := additions.String
		if mutate != nil {
			payload, err = mutate(payload)
			if err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE xcam_actions SET status = ?, additions = ?, updated_at = ? WHERE id = ?`,
			to,
			payload,
			time.Now().UTC().Format(time.RFC3339Nano),
			id,
		); err != nil {
			return fmt.Errorf("apply transition: %w", err)
		}
		return tx.Commit()
	})
}

// RetryFailed moves failed actions back to pending for reprocessing. With no
// ids it retries every failed action.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE xcam_actions SET status = ?, updated_at = ? WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed actions: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, timestamp)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	query := `UPDATE xcam_actions SET status = ?, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = ?`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected actions: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuck returns in-progress actions to pending. The daemon runs this on
// startup so actions orphaned by a crash get claimed again.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE xcam_actions SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusInProgress,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck actions: %w", err)
	}
	return res.RowsAffected()
}
