// Package dispatcher drains the action queue and runs command handlers
// against resolved target cameras.
//
// A fixed pool of workers claims pending actions one at a time; the claim is
// atomic in SQL so workers never collide. Every dispatch gets a correlation
// UUID, a bounded timeout, and a terminal done/failed transition. There is no
// automatic retry: failed actions stay failed until explicitly re-enqueued.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"xcam/internal/additions"
	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/transport"
)

// markTimeout bounds the status write after a handler finishes, so a slow
// database cannot wedge a worker that already has a result.
const markTimeout = 5 * time.Second

// Manager coordinates queue processing across dispatch workers.
type Manager struct {
	store    *queue.Store
	cameras  *registry.Store
	handlers *command.Registry
	logger   *slog.Logger

	workers            int
	pollInterval       time.Duration
	errorRetryInterval time.Duration
	actionTimeout      time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a dispatcher over the given stores and handlers.
func NewManager(cfg *config.Config, store *queue.Store, cameras *registry.Store, handlers *command.Registry, logger *slog.Logger) *Manager {
	return &Manager{
		store:              store,
		cameras:            cameras,
		handlers:           handlers,
		logger:             logging.NewComponentLogger(logger, "dispatcher"),
		workers:            cfg.Dispatcher.Workers,
		pollInterval:       time.Duration(cfg.Dispatcher.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Dispatcher.ErrorRetryInterval) * time.Second,
		actionTimeout:      time.Duration(cfg.Dispatcher.ActionTimeout) * time.Second,
	}
}

// Start launches the worker pool. Actions stranded in_progress by an earlier
// crash are reset to pending first so they get claimed again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("dispatcher already running")
	}
	if m.workers <= 0 {
		return errors.New("dispatcher needs at least one worker")
	}

	reset, err := m.store.ResetStuck(ctx)
	if err != nil {
		return fmt.Errorf("reset stuck actions: %w", err)
	}
	if reset > 0 {
		m.logger.Info("reset stranded actions", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i+1)
	}
	return nil
}

// Stop terminates the worker pool and waits for in-flight handlers to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the worker pool is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent claim or dispatch infrastructure error.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) runWorker(ctx context.Context, workerID int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", workerID))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := m.ProcessNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("claim failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_failed"),
				logging.String(logging.FieldErrorHint, "check action database access"))
			m.sleep(ctx, m.errorRetryInterval)
			continue
		}
		if !processed {
			m.sleep(ctx, m.pollInterval)
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// ProcessNext claims and fully processes one pending action. It reports false
// when the queue held no pending work. Handler failures are recorded on the
// action, not returned.
func (m *Manager) ProcessNext(ctx context.Context) (bool, error) {
	action, err := m.store.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if action == nil {
		return false, nil
	}
	m.processAction(ctx, action)
	return true, nil
}

func (m *Manager) processAction(ctx context.Context, action *queue.Action) {
	requestID := uuid.NewString()
	ctx = transport.WithActionID(ctx, action.ID)
	ctx = transport.WithCommand(ctx, action.Command)
	ctx = transport.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, m.logger)

	logger.Info("action claimed", logging.String(logging.FieldEventType, "action_start"))

	runCtx := ctx
	if m.actionTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.actionTimeout)
		defer cancel()
	}

	result, err := m.runHandler(runCtx, logger, action)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			// Shutdown raced the handler; the next start resets this action.
			logger.Debug("action interrupted by shutdown")
			return
		}
		if runCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			err = transport.Wrap(transport.ErrTimeout, "dispatcher", action.Command, "action timed out", err)
		}
		m.failAction(logger, action, err)
		return
	}

	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()
	if err := m.store.MarkDone(markCtx, action.ID, result); err != nil {
		m.setLastError(err)
		logger.Error("mark done failed", logging.Error(err))
		return
	}
	logger.Info("action done", logging.String(logging.FieldEventType, "action_done"))
}

func (m *Manager) runHandler(ctx context.Context, logger *slog.Logger, action *queue.Action) (map[string]any, error) {
	payload, err := additions.Decode(action.Additions)
	if err != nil {
		return nil, err
	}

	handler, ok := m.handlers.Lookup(action.Command)
	if !ok {
		return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "lookup",
			fmt.Sprintf("unknown command %q", action.Command), nil)
	}

	cameras, err := m.resolveTargets(ctx, payload)
	if err != nil {
		return nil, err
	}

	return handler.Execute(ctx, command.Request{
		Action:  action,
		Payload: payload,
		Cameras: cameras,
		Logger:  logger,
	})
}

// resolveTargets maps the payload selector onto registry rows. With no
// selector the action addresses every active camera.
func (m *Manager) resolveTargets(ctx context.Context, payload *additions.Payload) ([]*registry.Camera, error) {
	if payload.CameraID > 0 {
		camera, err := m.cameras.Resolve(ctx, payload.CameraID)
		if err != nil {
			return nil, err
		}
		if camera == nil {
			return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "resolve",
				fmt.Sprintf("camera %d not found", payload.CameraID), nil)
		}
		if !camera.IsActive() {
			return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "resolve",
				fmt.Sprintf("camera %s inactive", camera.Name), nil)
		}
		return []*registry.Camera{camera}, nil
	}

	if len(payload.MACAddresses) > 0 {
		cameras := make([]*registry.Camera, 0, len(payload.MACAddresses))
		for _, mac := range payload.MACAddresses {
			camera, err := m.cameras.ResolveByMAC(ctx, mac)
			if err != nil {
				return nil, err
			}
			if camera == nil {
				return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "resolve",
					fmt.Sprintf("camera %s not found", mac), nil)
			}
			if !camera.IsActive() {
				return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "resolve",
					fmt.Sprintf("camera %s inactive", camera.Name), nil)
			}
			cameras = append(cameras, camera)
		}
		return cameras, nil
	}

	cameras, err := m.cameras.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(cameras) == 0 {
		return nil, transport.Wrap(transport.ErrValidation, "dispatcher", "resolve", "no active cameras", nil)
	}
	return cameras, nil
}

func (m *Manager) failAction(logger *slog.Logger, action *queue.Action, dispatchErr error) {
	note := dispatchErr.Error()
	attrs := []any{
		logging.Error(dispatchErr),
		logging.String(logging.FieldEventType, "action_failed"),
	}
	if hint := transport.Hint(dispatchErr); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logger.Warn("action failed", attrs...)

	markCtx, cancel := context.WithTimeout(context.Background(), markTimeout)
	defer cancel()
	if err := m.store.MarkFailed(markCtx, action.ID, note); err != nil {
		m.setLastError(err)
		logger.Error("mark failed did not persist", logging.Error(err))
	}
}

// Health reports handler readiness for daemon diagnostics.
func (m *Manager) Health(ctx context.Context) []command.Health {
	if m.handlers == nil {
		return nil
	}
	return m.handlers.HealthChecks(ctx)
}
