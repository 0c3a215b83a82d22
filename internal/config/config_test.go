package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xcam/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Camera.RTSPPort != 554 {
		t.Fatalf("unexpected default rtsp port: %d", cfg.Camera.RTSPPort)
	}
	if cfg.Dispatcher.Workers != 2 {
		t.Fatalf("unexpected default worker count: %d", cfg.Dispatcher.Workers)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
capture_dir = "` + filepath.Join(dir, "captures") + `"
api_bind = "127.0.0.1:9000"

[dispatcher]
workers = 4
action_timeout = 30

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Dispatcher.Workers != 4 || cfg.Dispatcher.ActionTimeout != 30 {
		t.Fatalf("dispatcher overrides not applied: %+v", cfg.Dispatcher)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{"zero workers", func(c *config.Config) { c.Dispatcher.Workers = 0 }, "dispatcher.workers"},
		{"bad network", func(c *config.Config) { c.Discovery.Network = "not-a-cidr" }, "discovery.network"},
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "localhost" }, "paths.api_bind"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[dispatcher]") {
		t.Fatal("sample config missing dispatcher section")
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/xcam-test"
	if got := cfg.DatabasePath(); got != "/tmp/xcam-test/xcam.db" {
		t.Fatalf("unexpected database path: %q", got)
	}
}
