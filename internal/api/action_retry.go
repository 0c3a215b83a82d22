package api

import (
	"context"

	"xcam/internal/queue"
)

// ActionRetryService captures the operations the per-action retry flow needs.
type ActionRetryService interface {
	Describe(ctx context.Context, id int64) (*ActionView, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
}

type RetryOutcome string

const (
	RetryUpdated   RetryOutcome = "retried"
	RetryNotFound  RetryOutcome = "not_found"
	RetryNotFailed RetryOutcome = "not_failed"
)

type RetryActionResult struct {
	ID      int64        `json:"id"`
	Outcome RetryOutcome `json:"outcome"`
}

type RetryActionsResult struct {
	UpdatedCount int64               `json:"updatedCount"`
	Items        []RetryActionResult `json:"items"`
}

// RetryFailedActionsByID validates IDs and retries only failed actions.
func RetryFailedActionsByID(ctx context.Context, service ActionRetryService, ids []int64) (RetryActionsResult, error) {
	result := RetryActionsResult{Items: make([]RetryActionResult, 0, len(ids))}
	for _, id := range ids {
		action, err := service.Describe(ctx, id)
		if err != nil {
			return RetryActionsResult{}, err
		}
		if action == nil {
			result.Items = append(result.Items, RetryActionResult{ID: id, Outcome: RetryNotFound})
			continue
		}
		status, ok := queue.ParseStatus(action.Status)
		if !ok || status != queue.StatusFailed {
			result.Items = append(result.Items, RetryActionResult{ID: id, Outcome: RetryNotFailed})
			continue
		}
		updated, err := service.Retry(ctx, []int64{id})
		if err != nil {
			return RetryActionsResult{}, err
		}
		if updated > 0 {
			result.UpdatedCount += updated
			result.Items = append(result.Items, RetryActionResult{ID: id, Outcome: RetryUpdated})
			continue
		}
		result.Items = append(result.Items, RetryActionResult{ID: id, Outcome: RetryNotFailed})
	}
	return result, nil
}
