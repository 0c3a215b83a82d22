package api

import (
	"context"

	"xcam/internal/queue"
)

// ActionReader abstracts queue persistence interactions needed for API queries.
type ActionReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Action, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Action, error)
}

// ActionService exposes read-only action operations returning API views.
type ActionService struct {
	store ActionReader
}

// NewActionService constructs an ActionService around the provided reader.
func NewActionService(store ActionReader) *ActionService {
	if store == nil {
		return nil
	}
	return &ActionService{store: store}
}

// List returns actions filtered by status.
func (s *ActionService) List(ctx context.Context, statuses ...queue.Status) ([]ActionView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	actions, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromActions(actions), nil
}

// Stats returns action summary counts keyed by status string.
func (s *ActionService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeActionStats(stats), nil
}

// Describe fetches a single action, nil when the id is unknown.
func (s *ActionService) Describe(ctx context.Context, id int64) (*ActionView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	action, err := s.store.GetByID(ctx, id)
	if err != nil || action == nil {
		return nil, err
	}
	view := FromAction(action)
	return &view, nil
}
