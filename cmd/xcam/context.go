package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"xcam/internal/config"
	"xcam/internal/ipc"
)

// commandContext carries the persistent flag values and the lazily loaded
// configuration shared by every subcommand.
type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

// ensureConfig loads the configuration once per invocation and creates the
// directories it names. Subsequent calls return the cached result.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = c.loadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configValue returns the loaded config, nil when loading failed.
func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// socketPath resolves the daemon socket, writing the default back into the
// flag so launched daemons inherit the resolved path.
func (c *commandContext) socketPath() string {
	if c.socketFlag == nil {
		return defaultSocketPath()
	}
	if strings.TrimSpace(*c.socketFlag) == "" {
		*c.socketFlag = defaultSocketPath()
	}
	return *c.socketFlag
}

// withClient dials the daemon socket, runs fn, and closes the connection.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	if errors.Is(err, syscall.ENOENT) || os.IsNotExist(err) {
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `xcam start`", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

// defaultSocketPath derives the socket location from the configured data
// directory, falling back to the conventional data dir and finally to tmp.
func defaultSocketPath() string {
	if cfg, _, _, err := config.Load(""); err == nil {
		return filepath.Join(cfg.Paths.DataDir, "xcam.sock")
	}
	dataDir, err := config.ExpandPath("~/.local/share/xcam")
	if err != nil {
		dataDir = os.TempDir()
	}
	return filepath.Join(dataDir, "xcam.sock")
}

// shouldSkipConfig reports whether the command or any ancestor opted out of
// configuration loading via the skipConfigLoad annotation.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
