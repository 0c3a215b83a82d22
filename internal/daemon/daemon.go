package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/discovery"
	"xcam/internal/dispatcher"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
)

// Daemon coordinates background services and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *queue.Store
	cameras    *registry.Store
	dispatcher *dispatcher.Manager
	monitor    *discovery.Monitor

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	DatabasePath  string
	LockFilePath  string
	ActionStats   map[queue.Status]int
	CameraStats   map[registry.Status]int
	LastError     string
	Workers       int
	HandlerHealth []command.Health
}

// New constructs a daemon with initialized dependencies. The discovery
// monitor is optional; everything else is required.
func New(cfg *config.Config, store *queue.Store, cameras *registry.Store, disp *dispatcher.Manager, monitor *discovery.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || cameras == nil || disp == nil {
		return nil, errors.New("daemon requires config, stores, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "xcamd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		cameras:    cameras,
		dispatcher: disp,
		monitor:    monitor,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the dispatcher, the discovery
// monitor, and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another xcam daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.dispatcher.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start dispatcher: %w", err)
	}
	d.cancel = cancel

	if d.monitor != nil && d.cfg.Discovery.Enabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.monitor.Run(runCtx)
		}()
	}

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.logger.Warn("status API unavailable",
				logging.Error(err),
				logging.String(logging.FieldEventType, "api_start_failed"),
				logging.String(logging.FieldErrorHint, "check the api_bind address and free the port"))
		}
	}

	d.running.Store(true)
	d.logger.Info("xcam daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.dispatcher.Stop()
	d.wg.Wait()
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("xcam daemon stopped")
}

// Close stops the daemon and closes both stores.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if d.store != nil {
		firstErr = d.store.Close()
	}
	if d.cameras != nil {
		if err := d.cameras.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EnqueueAction validates and persists a new pending action.
func (d *Daemon) EnqueueAction(ctx context.Context, commandName, additions string) (*queue.Action, error) {
	action, err := d.store.Enqueue(ctx, commandName, additions)
	if err != nil {
		return nil, err
	}
	d.logger.Info("action queued",
		logging.String(logging.FieldEventType, "action_queued"),
		logging.Int64(logging.FieldActionID, action.ID),
		logging.String(logging.FieldCommand, action.Command))
	return action, nil
}

// ListActions returns actions filtered by optional statuses.
func (d *Daemon) ListActions(ctx context.Context, statuses []queue.Status) ([]*queue.Action, error) {
	return d.store.List(ctx, statuses...)
}

// GetAction fetches a single action, nil when the id is unknown.
func (d *Daemon) GetAction(ctx context.Context, id int64) (*queue.Action, error) {
	return d.store.GetByID(ctx, id)
}

// RetryFailed resets failed actions (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// ResetStuck transitions in-flight actions back to pending.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuck(ctx)
}

// ClearActions removes all actions.
func (d *Daemon) ClearActions(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearDone removes completed actions.
func (d *Daemon) ClearDone(ctx context.Context) (int64, error) {
	return d.store.ClearDone(ctx)
}

// ClearFailed removes failed actions.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RemoveAction deletes a single action by id.
func (d *Daemon) RemoveAction(ctx context.Context, id int64) (bool, error) {
	return d.store.Remove(ctx, id)
}

// ActionHealth returns aggregate queue diagnostics.
func (d *Daemon) ActionHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// ListCameras returns every registered camera.
func (d *Daemon) ListCameras(ctx context.Context) ([]*registry.Camera, error) {
	return d.cameras.List(ctx)
}

// GetCamera fetches a single camera, nil when the id is unknown.
func (d *Daemon) GetCamera(ctx context.Context, id int64) (*registry.Camera, error) {
	return d.cameras.Resolve(ctx, id)
}

// UpsertCamera inserts or updates a camera keyed on its MAC address.
func (d *Daemon) UpsertCamera(ctx context.Context, camera registry.Camera) (*registry.Camera, error) {
	stored, err := d.cameras.Upsert(ctx, camera)
	if err != nil {
		return nil, err
	}
	d.logger.Info("camera registered",
		logging.String(logging.FieldEventType, "camera_registered"),
		logging.Int64(logging.FieldCameraID, stored.ID),
		logging.String("mac", stored.MACAddress))
	return stored, nil
}

// ImportCameras registers a batch of cameras, aborting on the first bad record.
func (d *Daemon) ImportCameras(ctx context.Context, cameras []registry.Camera) (int, error) {
	return d.cameras.UpsertBatch(ctx, cameras)
}

// SetCameraStatus activates or deactivates a camera.
func (d *Daemon) SetCameraStatus(ctx context.Context, id int64, status registry.Status) error {
	return d.cameras.SetStatus(ctx, id, status)
}

// RemoveCamera deletes a camera by id.
func (d *Daemon) RemoveCamera(ctx context.Context, id int64) (bool, error) {
	return d.cameras.Remove(ctx, id)
}

// Scan performs a single discovery sweep of the configured network.
func (d *Daemon) Scan(ctx context.Context) (int, error) {
	if d.monitor == nil {
		return 0, errors.New("discovery is not configured")
	}
	return d.monitor.RunOnce(ctx)
}

// APIAddr returns the bound HTTP API address, empty when the API is disabled
// or not yet started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		DatabasePath:  d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		Workers:       d.cfg.Dispatcher.Workers,
		HandlerHealth: d.dispatcher.Health(ctx),
	}
	if err := d.dispatcher.LastError(); err != nil {
		status.LastError = err.Error()
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.ActionStats = stats
	}
	if stats, err := d.cameras.Stats(ctx); err == nil {
		status.CameraStats = stats
	}
	return status
}
