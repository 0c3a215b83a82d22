package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	CaptureDir string `toml:"capture_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Camera contains connection defaults shared by all transport adapters.
type Camera struct {
	RTSPPort       int    `toml:"rtsp_port"`
	StreamCodec    string `toml:"stream_codec"`
	DefaultChannel int    `toml:"default_channel"`
	CGIPort        int    `toml:"cgi_port"`
	CGITimeout     int    `toml:"cgi_timeout"`
}

// Capture contains frame grab settings for the capture handler.
type Capture struct {
	FrameWidth  int `toml:"frame_width"`
	FrameHeight int `toml:"frame_height"`
	GrabTimeout int `toml:"grab_timeout"`
}

// Discovery contains LAN camera scan settings.
type Discovery struct {
	Enabled      bool   `toml:"enabled"`
	Network      string `toml:"network"`
	ProbeTimeout int    `toml:"probe_timeout_ms"`
	MaxWorkers   int    `toml:"max_workers"`
	ScanInterval int    `toml:"scan_interval"`
}

// Dispatcher contains worker timing and concurrency settings.
type Dispatcher struct {
	Workers            int `toml:"workers"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	ActionTimeout      int `toml:"action_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for xcam.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and capture directories plus the API bind address
//   - Camera: RTSP/CGI connection defaults for registered cameras
//   - Capture: frame dimensions and grab timeout for capture actions
//   - Discovery: LAN scan network, probe timing, and scan cadence
//   - Dispatcher: worker count, polling intervals, per-action timeout
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Camera     Camera     `toml:"camera"`
	Capture    Capture    `toml:"capture"`
	Discovery  Discovery  `toml:"discovery"`
	Dispatcher Dispatcher `toml:"dispatcher"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/xcam/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether a
// config file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("xcam.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CaptureDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "xcam.db")
}

// FFmpegBinary returns the ffmpeg executable name used by the RTSP adapter.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// ARPBinary returns the arp executable name used for MAC resolution.
func (c *Config) ARPBinary() string {
	return "arp"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
