package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"xcam/internal/queue"
)

type mockActionReader struct {
	actions   []*queue.Action
	stats     map[queue.Status]int
	actionErr error
	statsErr  error
}

func (m *mockActionReader) List(context.Context, ...queue.Status) ([]*queue.Action, error) {
	return m.actions, m.actionErr
}

func (m *mockActionReader) Stats(context.Context) (map[queue.Status]int, error) {
	return m.stats, m.statsErr
}

func (m *mockActionReader) GetByID(context.Context, int64) (*queue.Action, error) {
	if len(m.actions) == 0 {
		return nil, m.actionErr
	}
	return m.actions[0], m.actionErr
}

func TestActionService_List(t *testing.T) {
	now := time.Now().UTC()
	reader := &mockActionReader{
		actions: []*queue.Action{{
			ID:        1,
			Command:   "check_config",
			Additions: `{"camera_id": 3}`,
			Status:    queue.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}
	svc := NewActionService(reader)
	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected action count: %d", len(got))
	}
	if got[0].Command != "check_config" {
		t.Fatalf("unexpected command: %q", got[0].Command)
	}
	if got[0].Status != string(queue.StatusPending) {
		t.Fatalf("unexpected status: %q", got[0].Status)
	}
	if string(got[0].Additions) != `{"camera_id": 3}` {
		t.Fatalf("unexpected additions: %s", got[0].Additions)
	}
	if got[0].CreatedAt == "" || got[0].UpdatedAt == "" {
		t.Fatalf("expected timestamps to be formatted")
	}
}

func TestActionService_ListError(t *testing.T) {
	errSentinel := errors.New("boom")
	svc := NewActionService(&mockActionReader{actionErr: errSentinel})
	_, err := svc.List(context.Background())
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected error %v, got %v", errSentinel, err)
	}
}

func TestActionService_Stats(t *testing.T) {
	svc := NewActionService(&mockActionReader{stats: map[queue.Status]int{
		queue.StatusPending: 2,
		queue.StatusFailed:  1,
	}})
	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got[string(queue.StatusPending)] != 2 {
		t.Fatalf("expected pending count 2, got %d", got[string(queue.StatusPending)])
	}
	if got[string(queue.StatusFailed)] != 1 {
		t.Fatalf("expected failed count 1, got %d", got[string(queue.StatusFailed)])
	}
}

func TestActionService_Describe(t *testing.T) {
	svc := NewActionService(&mockActionReader{actions: []*queue.Action{{
		ID:        7,
		Command:   "capture_and_stitch",
		Additions: `{"error": "camera 2 not found"}`,
		Status:    queue.StatusFailed,
	}}})
	action, err := svc.Describe(context.Background(), 7)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if action == nil {
		t.Fatal("Describe returned nil action")
	}
	if action.ID != 7 {
		t.Fatalf("unexpected id: %d", action.ID)
	}
	if action.Error != "camera 2 not found" {
		t.Fatalf("unexpected error note: %q", action.Error)
	}
}

func TestActionService_DescribeMissing(t *testing.T) {
	svc := NewActionService(&mockActionReader{})
	action, err := svc.Describe(context.Background(), 99)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if action != nil {
		t.Fatalf("expected nil view for unknown id, got %#v", action)
	}
}
