package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xcam/internal/command"
	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/transport"
	"xcam/internal/transport/rtsp"
)

// CheckConfigHandler verifies that every target camera answers on its
// configured stream endpoints.
type CheckConfigHandler struct {
	client      rtsp.Client
	rtspPort    int
	codec       string
	grabTimeout time.Duration
}

// NewCheckConfigHandler constructs the check_config handler from configuration.
func NewCheckConfigHandler(cfg *config.Config, client rtsp.Client) *CheckConfigHandler {
	return &CheckConfigHandler{
		client:      client,
		rtspPort:    cfg.Camera.RTSPPort,
		codec:       cfg.Camera.StreamCodec,
		grabTimeout: time.Duration(cfg.Capture.GrabTimeout) * time.Second,
	}
}

// Command returns the handled command name.
func (h *CheckConfigHandler) Command() string {
	return command.CheckConfig
}

// Execute probes every target camera on every requested channel. A single
// unreachable endpoint fails the action with the full list of bad endpoints.
func (h *CheckConfigHandler) Execute(ctx context.Context, req command.Request) (command.Result, error) {
	logger := logging.NewComponentLogger(req.Logger, "check-config")
	channels := req.Payload.NormalizedChannels()

	checked := 0
	var failures []string
	for _, camera := range req.Cameras {
		for _, channel := range channels {
			if err := h.probe(ctx, camera.IPAddress, camera.Username, camera.Password, channel); err != nil {
				logger.Warn("stream probe failed",
					logging.String("camera", camera.Name),
					logging.Int("channel", channel),
					logging.Error(err))
				failures = append(failures, fmt.Sprintf("%s ch%d", camera.Name, channel))
				continue
			}
			checked++
		}
	}

	if len(failures) > 0 {
		return nil, transport.Wrap(transport.ErrUnreachable, "check-config", "probe",
			"unreachable endpoints: "+strings.Join(failures, ", "), nil)
	}

	logger.Info("configuration check passed", logging.Int("endpoints", checked))
	return command.Result{"checked": checked}, nil
}

func (h *CheckConfigHandler) probe(ctx context.Context, host, username, password string, channel int) error {
	probeCtx := ctx
	if h.grabTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, h.grabTimeout)
		defer cancel()
	}
	return h.client.Probe(probeCtx, rtsp.Endpoint{
		Host:     host,
		Port:     h.rtspPort,
		Username: username,
		Password: password,
		Codec:    h.codec,
		Channel:  channel,
	})
}

// HealthCheck reports stream client availability.
func (h *CheckConfigHandler) HealthCheck(context.Context) command.Health {
	if h.client == nil {
		return command.Unhealthy(command.CheckConfig, "rtsp client unavailable")
	}
	return command.Healthy(command.CheckConfig)
}

var _ command.Handler = (*CheckConfigHandler)(nil)
