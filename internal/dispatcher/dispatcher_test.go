package dispatcher_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"xcam/internal/command"
	"xcam/internal/dispatcher"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/testsupport"
)

type recordingHandler struct {
	name    string
	calls   atomic.Int64
	cameras atomic.Int64
	result  command.Result
	fail    error
	block   time.Duration
}

func (h *recordingHandler) Command() string { return h.name }

func (h *recordingHandler) Execute(ctx context.Context, req command.Request) (command.Result, error) {
	h.calls.Add(1)
	h.cameras.Store(int64(len(req.Cameras)))
	if h.block > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.block):
		}
	}
	if h.fail != nil {
		return nil, h.fail
	}
	return h.result, nil
}

func (h *recordingHandler) HealthCheck(context.Context) command.Health {
	return command.Healthy(h.name)
}

func newManager(t *testing.T, handlers *command.Registry) (*dispatcher.Manager, *queue.Store, *registry.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Dispatcher.ActionTimeout = 1
	store := testsupport.MustOpenStore(t, cfg)
	cameras := testsupport.MustOpenRegistry(t, cfg)
	manager := dispatcher.NewManager(cfg, store, cameras, handlers, logging.NewNop())
	return manager, store, cameras
}

func activeCamera(t *testing.T, cameras *registry.Store) *registry.Camera {
	t.Helper()
	return testsupport.RegisterCamera(t, cameras, registry.Camera{
		Name:       "cam",
		IPAddress:  "192.168.1.30",
		MACAddress: "aa:bb:cc:dd:ee:01",
	})
}

func TestProcessNextRunsHandlerAndMarksDone(t *testing.T) {
	handler := &recordingHandler{name: command.CheckConfig, result: command.Result{"checked": 1}}
	handlers := command.NewRegistry()
	if err := handlers.Register(handler); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	manager, store, cameras := newManager(t, handlers)
	activeCamera(t, cameras)

	ctx := context.Background()
	action := testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 1}`)

	processed, err := manager.ProcessNext(ctx)
	if err != nil || !processed {
		t.Fatalf("ProcessNext: %v processed=%v", err, processed)
	}
	if handler.calls.Load() != 1 {
		t.Fatalf("expected handler call, got %d", handler.calls.Load())
	}

	updated, err := store.GetByID(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusDone {
		t.Fatalf("expected done, got %s (%s)", updated.Status, updated.Additions)
	}
	payload, _ := updated.AdditionsMap()
	result, ok := payload["result"].(map[string]any)
	if !ok || result["checked"] != float64(1) {
		t.Fatalf("expected merged result, got %#v", payload)
	}
}

func TestProcessNextEmptyQueue(t *testing.T) {
	manager, _, _ := newManager(t, command.NewRegistry())
	processed, err := manager.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if processed {
		t.Fatal("expected no work")
	}
}

func failureNote(t *testing.T, store *queue.Store, id int64) string {
	t.Helper()
	action, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if action.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", action.Status)
	}
	return action.FailureNote()
}

func TestUnknownCommandFails(t *testing.T) {
	manager, store, cameras := newManager(t, command.NewRegistry())
	activeCamera(t, cameras)

	action := testsupport.Enqueue(t, store, "frobnicate", "{}")
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if note := failureNote(t, store, action.ID); !strings.Contains(note, "unknown command") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestUnknownCameraFails(t *testing.T) {
	handlers := command.NewRegistry()
	_ = handlers.Register(&recordingHandler{name: command.CheckConfig})
	manager, store, _ := newManager(t, handlers)

	action := testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 42}`)
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if note := failureNote(t, store, action.ID); !strings.Contains(note, "camera 42 not found") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestInactiveCameraFails(t *testing.T) {
	handlers := command.NewRegistry()
	_ = handlers.Register(&recordingHandler{name: command.CheckConfig})
	manager, store, cameras := newManager(t, handlers)

	camera := activeCamera(t, cameras)
	if err := cameras.SetStatus(context.Background(), camera.ID, registry.StatusInactive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	action := testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 1}`)
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if note := failureNote(t, store, action.ID); !strings.Contains(note, "inactive") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestMalformedAdditionsFails(t *testing.T) {
	handlers := command.NewRegistry()
	_ = handlers.Register(&recordingHandler{name: command.CheckConfig})
	manager, store, cameras := newManager(t, handlers)
	activeCamera(t, cameras)

	action := testsupport.Enqueue(t, store, command.CheckConfig, `{"channels": [7]}`)
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if note := failureNote(t, store, action.ID); !strings.Contains(note, "channel 7") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestActionTimeoutFails(t *testing.T) {
	handler := &recordingHandler{name: command.CheckConfig, block: 5 * time.Second}
	handlers := command.NewRegistry()
	_ = handlers.Register(handler)
	manager, store, cameras := newManager(t, handlers)
	activeCamera(t, cameras)

	action := testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 1}`)
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if note := failureNote(t, store, action.ID); !strings.Contains(note, "timed out") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestSelectorDefaultsToAllActive(t *testing.T) {
	handler := &recordingHandler{name: command.CheckConfig}
	handlers := command.NewRegistry()
	_ = handlers.Register(handler)
	manager, store, cameras := newManager(t, handlers)

	testsupport.RegisterCamera(t, cameras, registry.Camera{
		Name: "a", IPAddress: "192.168.1.30", MACAddress: "aa:bb:cc:dd:ee:01",
	})
	testsupport.RegisterCamera(t, cameras, registry.Camera{
		Name: "b", IPAddress: "192.168.1.31", MACAddress: "aa:bb:cc:dd:ee:02",
	})

	testsupport.Enqueue(t, store, command.CheckConfig, "{}")
	if _, err := manager.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if handler.cameras.Load() != 2 {
		t.Fatalf("expected both active cameras, got %d", handler.cameras.Load())
	}
}

func TestStartDrainsQueue(t *testing.T) {
	handler := &recordingHandler{name: command.CheckConfig}
	handlers := command.NewRegistry()
	_ = handlers.Register(handler)
	manager, store, cameras := newManager(t, handlers)
	activeCamera(t, cameras)

	ctx := context.Background()
	const total = 5
	for i := 0; i < total; i++ {
		testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 1}`)
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	deadline := time.After(5 * time.Second)
	for {
		health, err := store.Health(ctx)
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if health.Done == total {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("queue not drained: %#v", health)
		case <-time.After(20 * time.Millisecond):
		}
	}

	if err := manager.Start(ctx); err == nil {
		manager.Stop()
		t.Fatal("expected error starting twice")
	}
}

func TestStartResetsStuckActions(t *testing.T) {
	handler := &recordingHandler{name: command.CheckConfig}
	handlers := command.NewRegistry()
	_ = handlers.Register(handler)
	manager, store, cameras := newManager(t, handlers)
	activeCamera(t, cameras)

	ctx := context.Background()
	testsupport.Enqueue(t, store, command.CheckConfig, `{"camera_id": 1}`)
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	deadline := time.After(5 * time.Second)
	for {
		health, err := store.Health(ctx)
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if health.Done == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("stuck action not reprocessed: %#v", health)
		case <-time.After(20 * time.Millisecond):
		}
	}
}
