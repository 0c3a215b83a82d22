package api

import (
	"context"
	"testing"

	"xcam/internal/queue"
)

type mockRetryService struct {
	views   map[int64]*ActionView
	retried []int64
}

func (m *mockRetryService) Describe(_ context.Context, id int64) (*ActionView, error) {
	return m.views[id], nil
}

func (m *mockRetryService) Retry(_ context.Context, ids []int64) (int64, error) {
	m.retried = append(m.retried, ids...)
	return int64(len(ids)), nil
}

func TestRetryFailedActionsByID(t *testing.T) {
	svc := &mockRetryService{views: map[int64]*ActionView{
		1: {ID: 1, Status: string(queue.StatusFailed)},
		2: {ID: 2, Status: string(queue.StatusDone)},
	}}

	result, err := RetryFailedActionsByID(context.Background(), svc, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RetryFailedActionsByID returned error: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("expected one retried action, got %d", result.UpdatedCount)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected three outcomes, got %d", len(result.Items))
	}
	outcomes := map[int64]RetryOutcome{}
	for _, item := range result.Items {
		outcomes[item.ID] = item.Outcome
	}
	if outcomes[1] != RetryUpdated || outcomes[2] != RetryNotFailed || outcomes[3] != RetryNotFound {
		t.Fatalf("unexpected outcomes: %#v", outcomes)
	}
	if len(svc.retried) != 1 || svc.retried[0] != 1 {
		t.Fatalf("expected only action 1 retried, got %v", svc.retried)
	}
}
