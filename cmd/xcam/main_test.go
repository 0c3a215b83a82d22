package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/daemon"
	"xcam/internal/dispatcher"
	"xcam/internal/ipc"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	cameras    *registry.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(homeDir, ".config", "xcam", "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	cameras := testsupport.MustOpenRegistry(t, cfg)

	logger := logging.NewNop()
	handlers := command.NewRegistry()
	disp := dispatcher.NewManager(cfg, store, cameras, handlers, logger)

	d, err := daemon.New(cfg, store, cameras, disp, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.DataDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		cameras:    cameras,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func registerTestCamera(t *testing.T, env *cliTestEnv, mac string) *registry.Camera {
	t.Helper()
	return testsupport.RegisterCamera(t, env.cameras, registry.Camera{
		Name:       "cam-" + mac,
		IPAddress:  "192.168.1.50",
		MACAddress: mac,
		Status:     registry.StatusActive,
	})
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIStatusWithoutDaemonStart(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "Cameras")
	requireContains(t, out, "Actions")
}

func TestCLIDialErrorMentionsStart(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(env.cfg.Paths.DataDir, "missing.sock")
	_, _, err := runCLI(t, []string{"action", "list"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected dial error")
	}
	requireContains(t, err.Error(), "xcam start")
}
