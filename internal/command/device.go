package command

import (
	"context"
	"fmt"

	"xcam/internal/logging"
	"xcam/internal/transport"
	"xcam/internal/transport/httpcgi"
)

// DeviceSender abstracts the CGI adapter for tests.
type DeviceSender interface {
	Send(ctx context.Context, device httpcgi.Device, command string, params map[string]any) ([]byte, error)
}

// DeviceHandler forwards any command without a dedicated handler to the
// camera's HTTP-CGI endpoint as an opaque envelope. It serves as the registry
// fallback, covering vendor commands like set_zoom and reboot.
type DeviceHandler struct {
	sender  DeviceSender
	cgiPort int
}

// NewDeviceHandler constructs the generic device-command handler.
func NewDeviceHandler(sender DeviceSender, cgiPort int) *DeviceHandler {
	if cgiPort <= 0 {
		cgiPort = 8000
	}
	return &DeviceHandler{sender: sender, cgiPort: cgiPort}
}

// Command names the fallback handler for health output.
func (h *DeviceHandler) Command() string {
	return "device"
}

// Execute sends the action's command to every target camera and collects
// per-camera acknowledgements. Any camera failure fails the action.
func (h *DeviceHandler) Execute(ctx context.Context, req Request) (Result, error) {
	if h.sender == nil {
		return nil, transport.Wrap(transport.ErrValidation, "device", req.Action.Command, "cgi adapter unavailable", nil)
	}

	logger := logging.NewComponentLogger(req.Logger, "device")
	acks := make(map[string]any, len(req.Cameras))
	for _, camera := range req.Cameras {
		device := httpcgi.Device{
			Host:     camera.IPAddress,
			Port:     h.cgiPort,
			Username: camera.Username,
			Password: camera.Password,
		}
		body, err := h.sender.Send(ctx, device, req.Action.Command, req.Payload.Params)
		if err != nil {
			return nil, fmt.Errorf("camera %s: %w", camera.Name, err)
		}
		logger.Info("device command acknowledged",
			logging.String("camera", camera.Name),
			logging.String("command", req.Action.Command))
		acks[camera.Name] = string(body)
	}
	return Result{"acknowledged": acks}, nil
}

// HealthCheck reports adapter availability.
func (h *DeviceHandler) HealthCheck(context.Context) Health {
	if h.sender == nil {
		return Unhealthy("device", "cgi adapter unavailable")
	}
	return Healthy("device")
}

var _ Handler = (*DeviceHandler)(nil)
