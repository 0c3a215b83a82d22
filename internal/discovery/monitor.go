package discovery

import (
	"context"
	"log/slog"
	"time"

	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/registry"
)

// Monitor runs periodic discovery sweeps and records results in the registry.
type Monitor struct {
	scanner  *Scanner
	store    *registry.Store
	interval time.Duration
	logger   *slog.Logger
}

// NewMonitor wires a scanner to the camera registry.
func NewMonitor(cfg *config.Config, scanner *Scanner, store *registry.Store, logger *slog.Logger) *Monitor {
	return &Monitor{
		scanner:  scanner,
		store:    store,
		interval: time.Duration(cfg.Discovery.ScanInterval) * time.Second,
		logger:   logging.NewComponentLogger(logger, "discovery"),
	}
}

// RunOnce performs a single sweep and upserts the results. Returns the number
// of cameras written.
func (m *Monitor) RunOnce(ctx context.Context) (int, error) {
	cameras, err := m.scanner.Scan(ctx)
	if err != nil {
		return 0, err
	}
	if len(cameras) == 0 {
		return 0, nil
	}
	written, err := m.store.UpsertDiscovered(ctx, cameras)
	if err != nil {
		return written, err
	}
	m.logger.Info("registry updated from sweep", logging.Int("cameras", written))
	return written, nil
}

// Run sweeps immediately and then on every interval tick until the context is
// cancelled. Sweep failures are logged, not fatal.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Warn("discovery interval not set, monitor disabled")
		return
	}

	if _, err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn("initial sweep failed", logging.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("sweep failed", logging.Error(err))
			}
		}
	}
}
