package testsupport

import (
	"path/filepath"
	"testing"

	"xcam/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CaptureDir = filepath.Join(base, "captures")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Discovery.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNetwork overrides the discovery scan network on the test config.
func WithNetwork(cidr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.Network = cidr
	}
}

// WithDispatcherWorkers sets the dispatcher worker count on the test config.
func WithDispatcherWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatcher.Workers = workers
	}
}
