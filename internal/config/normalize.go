package config

import (
	"fmt"
	"strings"
)

// normalize expands and cleans user-supplied values before validation.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("normalize data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("normalize log_dir: %w", err)
	}
	if c.Paths.CaptureDir, err = expandPath(c.Paths.CaptureDir); err != nil {
		return fmt.Errorf("normalize capture_dir: %w", err)
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Camera.StreamCodec = strings.ToLower(strings.TrimSpace(c.Camera.StreamCodec))
	c.Discovery.Network = strings.TrimSpace(c.Discovery.Network)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Camera.StreamCodec == "" {
		c.Camera.StreamCodec = defaultStreamCodec
	}
	if c.Camera.DefaultChannel == 0 {
		c.Camera.DefaultChannel = defaultChannel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
