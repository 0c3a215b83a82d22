// Package daemonrun wires the daemon process: stores, transport clients,
// command handlers, dispatcher, discovery, and the IPC socket.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"xcam/internal/capture"
	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/daemon"
	"xcam/internal/discovery"
	"xcam/internal/dispatcher"
	"xcam/internal/ipc"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/transport/httpcgi"
	"xcam/internal/transport/rtsp"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	SocketPath string
}

// SocketPath returns the IPC socket location for the given config.
func SocketPath(cfg *config.Config) string {
	if cfg == nil {
		return "xcam.sock"
	}
	return filepath.Join(cfg.Paths.DataDir, "xcam.sock")
}

// Run starts the xcam daemon runtime loop and blocks until a signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "xcamd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open action store", logging.Error(err))
		return err
	}
	defer store.Close()

	cameras, err := registry.Open(cfg)
	if err != nil {
		logger.Error("open camera registry", logging.Error(err))
		return err
	}
	defer cameras.Close()

	handlers := buildHandlers(cfg)
	disp := dispatcher.NewManager(cfg, store, cameras, handlers, logger)

	var monitor *discovery.Monitor
	if cfg.Discovery.Network != "" {
		scanner := discovery.NewScanner(cfg, logger)
		monitor = discovery.NewMonitor(cfg, scanner, cameras, logger)
	}

	d, err := daemon.New(cfg, store, cameras, disp, monitor, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = SocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and database access"))
	}

	<-signalCtx.Done()
	logger.Info("xcam daemon shutting down")
	return nil
}

func buildHandlers(cfg *config.Config) *command.Registry {
	handlers := command.NewRegistry()
	streams := rtsp.NewCLI(rtsp.WithBinary(cfg.FFmpegBinary()))
	_ = handlers.Register(capture.NewHandler(cfg, streams))
	_ = handlers.Register(capture.NewCheckConfigHandler(cfg, streams))
	cgi := httpcgi.NewClient(httpcgi.WithTimeout(time.Duration(cfg.Camera.CGITimeout) * time.Second))
	handlers.SetFallback(command.NewDeviceHandler(cgi, cfg.Camera.CGIPort))
	return handlers
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
