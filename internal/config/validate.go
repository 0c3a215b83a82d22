package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateDispatcher(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CaptureDir) == "" {
		return errors.New("paths.capture_dir must be set")
	}
	if bind := c.Paths.APIBind; bind != "" {
		if _, _, err := net.SplitHostPort(bind); err != nil {
			return fmt.Errorf("paths.api_bind %q is not a host:port value: %w", bind, err)
		}
	}
	return nil
}

func (c *Config) validateCamera() error {
	return ensurePositiveMap(map[string]int{
		"camera.rtsp_port":       c.Camera.RTSPPort,
		"camera.default_channel": c.Camera.DefaultChannel,
		"camera.cgi_port":        c.Camera.CGIPort,
		"camera.cgi_timeout":     c.Camera.CGITimeout,
	})
}

func (c *Config) validateCapture() error {
	return ensurePositiveMap(map[string]int{
		"capture.frame_width":  c.Capture.FrameWidth,
		"capture.frame_height": c.Capture.FrameHeight,
		"capture.grab_timeout": c.Capture.GrabTimeout,
	})
}

func (c *Config) validateDiscovery() error {
	if !c.Discovery.Enabled {
		return nil
	}
	if _, _, err := net.ParseCIDR(c.Discovery.Network); err != nil {
		return fmt.Errorf("discovery.network %q is not a CIDR range: %w", c.Discovery.Network, err)
	}
	return ensurePositiveMap(map[string]int{
		"discovery.probe_timeout_ms": c.Discovery.ProbeTimeout,
		"discovery.max_workers":      c.Discovery.MaxWorkers,
		"discovery.scan_interval":    c.Discovery.ScanInterval,
	})
}

func (c *Config) validateDispatcher() error {
	return ensurePositiveMap(map[string]int{
		"dispatcher.workers":              c.Dispatcher.Workers,
		"dispatcher.queue_poll_interval":  c.Dispatcher.QueuePollInterval,
		"dispatcher.error_retry_interval": c.Dispatcher.ErrorRetryInterval,
		"dispatcher.action_timeout":       c.Dispatcher.ActionTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}
