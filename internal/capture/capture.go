// Package capture implements the RTSP-backed command handlers: frame capture
// with stitching, and stream configuration checks.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/registry"
	"xcam/internal/transport"
	"xcam/internal/transport/rtsp"
)

// sessionInfoFile is written into every capture session directory.
const sessionInfoFile = "capture_info.json"

// SessionInfo is the metadata document describing one capture session.
type SessionInfo struct {
	Session   string          `json:"session"`
	ActionID  int64           `json:"action_id"`
	StartedAt time.Time       `json:"started_at"`
	Cameras   []CameraCapture `json:"cameras"`
}

// CameraCapture records the per-camera outcome of a session.
type CameraCapture struct {
	CameraID  int64          `json:"camera_id"`
	Name      string         `json:"name"`
	Frames    map[int]string `json:"frames,omitempty"`
	Composite string         `json:"composite,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
}

// Handler grabs frames from target cameras and stitches multi-channel shots
// into a single composite image.
type Handler struct {
	client      rtsp.Client
	captureDir  string
	rtspPort    int
	codec       string
	frameWidth  int
	frameHeight int
	grabTimeout time.Duration
}

// NewHandler constructs the capture_and_stitch handler from configuration.
func NewHandler(cfg *config.Config, client rtsp.Client) *Handler {
	return &Handler{
		client:      client,
		captureDir:  cfg.Paths.CaptureDir,
		rtspPort:    cfg.Camera.RTSPPort,
		codec:       cfg.Camera.StreamCodec,
		frameWidth:  cfg.Capture.FrameWidth,
		frameHeight: cfg.Capture.FrameHeight,
		grabTimeout: time.Duration(cfg.Capture.GrabTimeout) * time.Second,
	}
}

// Command returns the handled command name.
func (h *Handler) Command() string {
	return command.CaptureAndStitch
}

// Execute captures one frame per requested channel from every target camera,
// composes multi-channel captures side by side, and writes session metadata.
// Partial camera failures are tolerated; a session with zero frames fails.
func (h *Handler) Execute(ctx context.Context, req command.Request) (command.Result, error) {
	logger := logging.NewComponentLogger(req.Logger, "capture")
	channels := req.Payload.NormalizedChannels()

	sessionDir, sessionName, err := h.newSessionDir()
	if err != nil {
		return nil, transport.Wrap(transport.ErrExternalTool, "capture", "session", "create session directory", err)
	}

	info := SessionInfo{
		Session:   sessionName,
		ActionID:  req.Action.ID,
		StartedAt: time.Now().UTC(),
	}

	totalFrames := 0
	composites := make([]string, 0, len(req.Cameras))
	for _, camera := range req.Cameras {
		record := h.captureCamera(ctx, logger, sessionDir, camera, channels)
		totalFrames += len(record.Frames)
		if record.Composite != "" {
			composites = append(composites, record.Composite)
		}
		info.Cameras = append(info.Cameras, record)
	}

	if err := h.writeSessionInfo(sessionDir, info); err != nil {
		logger.Warn("session metadata not written", logging.Error(err))
	}

	if totalFrames == 0 {
		return nil, transport.Wrap(transport.ErrUnreachable, "capture", "session",
			fmt.Sprintf("no frames captured from %d camera(s)", len(req.Cameras)), nil)
	}

	logger.Info("capture session complete",
		logging.String("session", sessionName),
		logging.Int("frames", totalFrames),
		logging.Int("composites", len(composites)))

	return command.Result{
		"session_dir": sessionDir,
		"frames":      totalFrames,
		"composites":  composites,
	}, nil
}

func (h *Handler) captureCamera(ctx context.Context, logger *slog.Logger, sessionDir string, camera *registry.Camera, channels []int) CameraCapture {
	record := CameraCapture{
		CameraID: camera.ID,
		Name:     camera.Name,
		Frames:   make(map[int]string, len(channels)),
	}

	framePaths := make([]string, 0, len(channels))
	for _, channel := range channels {
		framePath := filepath.Join(sessionDir, fmt.Sprintf("cam%d_ch%d.jpg", camera.ID, channel))
		if err := h.grabFrame(ctx, camera, channel, framePath); err != nil {
			logger.Warn("frame grab failed",
				logging.String("camera", camera.Name),
				logging.Int("channel", channel),
				logging.Error(err))
			record.Errors = append(record.Errors, err.Error())
			continue
		}
		record.Frames[channel] = framePath
		framePaths = append(framePaths, framePath)
	}

	if len(framePaths) > 1 {
		compositePath := filepath.Join(sessionDir, fmt.Sprintf("cam%d_composite.jpg", camera.ID))
		if err := h.client.Stitch(ctx, framePaths, compositePath); err != nil {
			logger.Warn("stitch failed",
				logging.String("camera", camera.Name),
				logging.Error(err))
			record.Errors = append(record.Errors, err.Error())
		} else {
			record.Composite = compositePath
		}
	}
	return record
}

func (h *Handler) grabFrame(ctx context.Context, camera *registry.Camera, channel int, framePath string) error {
	grabCtx := ctx
	if h.grabTimeout > 0 {
		var cancel context.CancelFunc
		grabCtx, cancel = context.WithTimeout(ctx, h.grabTimeout)
		defer cancel()
	}
	return h.client.CaptureFrame(grabCtx, h.endpoint(camera, channel), framePath, h.frameWidth, h.frameHeight)
}

func (h *Handler) endpoint(camera *registry.Camera, channel int) rtsp.Endpoint {
	return rtsp.Endpoint{
		Host:     camera.IPAddress,
		Port:     h.rtspPort,
		Username: camera.Username,
		Password: camera.Password,
		Codec:    h.codec,
		Channel:  channel,
	}
}

func (h *Handler) newSessionDir() (string, string, error) {
	sessionName := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
	sessionDir := filepath.Join(h.captureDir, sessionName)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return "", "", err
	}
	return sessionDir, sessionName, nil
}

func (h *Handler) writeSessionInfo(sessionDir string, info SessionInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session info: %w", err)
	}
	return os.WriteFile(filepath.Join(sessionDir, sessionInfoFile), data, 0o644)
}

// HealthCheck verifies the capture directory is writable.
func (h *Handler) HealthCheck(context.Context) command.Health {
	if h.client == nil {
		return command.Unhealthy(command.CaptureAndStitch, "rtsp client unavailable")
	}
	if err := os.MkdirAll(h.captureDir, 0o755); err != nil {
		return command.Unhealthy(command.CaptureAndStitch, fmt.Sprintf("capture directory: %v", err))
	}
	return command.Healthy(command.CaptureAndStitch)
}

var _ command.Handler = (*Handler)(nil)
