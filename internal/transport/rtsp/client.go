// Package rtsp probes camera streams and grabs frames by shelling out to
// ffmpeg, the one tool the capture pipeline depends on.
package rtsp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"xcam/internal/transport"
)

var commandContext = exec.CommandContext

// Client defines the stream operations handlers rely on.
type Client interface {
	Probe(ctx context.Context, endpoint Endpoint) error
	CaptureFrame(ctx context.Context, endpoint Endpoint, outputPath string, width, height int) error
	Stitch(ctx context.Context, framePaths []string, outputPath string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Probe opens the stream and decodes a single frame to confirm the endpoint
// answers with usable video.
func (c *CLI) Probe(ctx context.Context, endpoint Endpoint) error {
	if endpoint.Host == "" {
		return transport.Wrap(transport.ErrValidation, "rtsp", "probe", "endpoint host required", nil)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-rtsp_transport", "tcp",
		"-i", endpoint.URL(),
		"-frames:v", "1",
		"-f", "null", "-",
	}
	if err := c.run(ctx, args); err != nil {
		return c.classify(ctx, "probe", endpoint, err)
	}
	return nil
}

// CaptureFrame grabs one frame from the stream and writes it to outputPath,
// scaled to the requested size when width and height are positive.
func (c *CLI) CaptureFrame(ctx context.Context, endpoint Endpoint, outputPath string, width, height int) error {
	if endpoint.Host == "" {
		return transport.Wrap(transport.ErrValidation, "rtsp", "capture-frame", "endpoint host required", nil)
	}
	if outputPath == "" {
		return transport.Wrap(transport.ErrValidation, "rtsp", "capture-frame", "output path required", nil)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-rtsp_transport", "tcp",
		"-i", endpoint.URL(),
		"-frames:v", "1",
	}
	if width > 0 && height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}
	args = append(args, "-y", outputPath)
	if err := c.run(ctx, args); err != nil {
		return c.classify(ctx, "capture-frame", endpoint, err)
	}
	return nil
}

// Stitch composes per-channel frames side by side into a single image.
func (c *CLI) Stitch(ctx context.Context, framePaths []string, outputPath string) error {
	if len(framePaths) == 0 {
		return transport.Wrap(transport.ErrValidation, "rtsp", "stitch", "no frames to stitch", nil)
	}
	if outputPath == "" {
		return transport.Wrap(transport.ErrValidation, "rtsp", "stitch", "output path required", nil)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	for _, path := range framePaths {
		args = append(args, "-i", path)
	}
	if len(framePaths) > 1 {
		args = append(args,
			"-filter_complex", fmt.Sprintf("hstack=inputs=%d", len(framePaths)),
		)
	}
	args = append(args, "-frames:v", "1", "-y", outputPath)

	if err := c.run(ctx, args); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return transport.Wrap(transport.ErrTimeout, "rtsp", "stitch", "compose timed out", err)
		}
		return transport.Wrap(transport.ErrExternalTool, "rtsp", "stitch", "ffmpeg compose failed", err)
	}
	return nil
}

func (c *CLI) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %s", err, lastLine(detail))
		}
		return err
	}
	return nil
}

func (c *CLI) classify(ctx context.Context, operation string, endpoint Endpoint, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return transport.Wrap(transport.ErrTimeout, "rtsp", operation, endpoint.Redacted(), err)
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return transport.Wrap(transport.ErrExternalTool, "rtsp", operation, "ffmpeg not available", err)
	}
	return transport.Wrap(transport.ErrUnreachable, "rtsp", operation, endpoint.Redacted(), err)
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var _ Client = (*CLI)(nil)
