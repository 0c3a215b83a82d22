package capture_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"xcam/internal/additions"
	"xcam/internal/capture"
	"xcam/internal/command"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/testsupport"
	"xcam/internal/transport"
	"xcam/internal/transport/rtsp"
)

type fakeStream struct {
	probeErr   map[string]error
	captureErr map[string]error
	stitchErr  error
	captured   []string
	stitched   [][]string
}

func endpointKey(endpoint rtsp.Endpoint) string {
	return endpoint.URL()
}

func (f *fakeStream) Probe(ctx context.Context, endpoint rtsp.Endpoint) error {
	return f.probeErr[endpointKey(endpoint)]
}

func (f *fakeStream) CaptureFrame(ctx context.Context, endpoint rtsp.Endpoint, outputPath string, width, height int) error {
	if err := f.captureErr[endpointKey(endpoint)]; err != nil {
		return err
	}
	f.captured = append(f.captured, outputPath)
	return os.WriteFile(outputPath, []byte("jpg"), 0o644)
}

func (f *fakeStream) Stitch(ctx context.Context, framePaths []string, outputPath string) error {
	if f.stitchErr != nil {
		return f.stitchErr
	}
	f.stitched = append(f.stitched, append([]string(nil), framePaths...))
	return os.WriteFile(outputPath, []byte("composite"), 0o644)
}

func newRequest(payload *additions.Payload, cameras ...*registry.Camera) command.Request {
	return command.Request{
		Action:  &queue.Action{ID: 7, Command: command.CaptureAndStitch},
		Payload: payload,
		Cameras: cameras,
		Logger:  logging.NewNop(),
	}
}

func camera(id int64, name, ip string) *registry.Camera {
	return &registry.Camera{ID: id, Name: name, IPAddress: ip, Status: registry.StatusActive}
}

func TestCaptureStitchesBothChannels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stream := &fakeStream{}
	handler := capture.NewHandler(cfg, stream)

	result, err := handler.Execute(context.Background(),
		newRequest(&additions.Payload{CameraID: 1, Channels: []int{1, 2}}, camera(1, "porch", "192.168.1.30")))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["frames"] != 2 {
		t.Fatalf("expected 2 frames, got %#v", result)
	}
	composites, ok := result["composites"].([]string)
	if !ok || len(composites) != 1 {
		t.Fatalf("expected one composite, got %#v", result)
	}
	if len(stream.stitched) != 1 || len(stream.stitched[0]) != 2 {
		t.Fatalf("expected stitch over 2 frames, got %#v", stream.stitched)
	}

	sessionDir, _ := result["session_dir"].(string)
	data, err := os.ReadFile(filepath.Join(sessionDir, "capture_info.json"))
	if err != nil {
		t.Fatalf("read session info: %v", err)
	}
	var info capture.SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("unmarshal session info: %v", err)
	}
	if info.ActionID != 7 || len(info.Cameras) != 1 {
		t.Fatalf("unexpected session info %#v", info)
	}
	if info.Cameras[0].Composite == "" {
		t.Fatalf("expected composite path in session info %#v", info.Cameras[0])
	}
}

func TestCaptureToleratesPartialFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deadEndpoint := rtsp.Endpoint{Host: "192.168.1.31", Port: cfg.Camera.RTSPPort, Codec: cfg.Camera.StreamCodec, Channel: 1}
	stream := &fakeStream{
		captureErr: map[string]error{
			deadEndpoint.URL(): transport.Wrap(transport.ErrUnreachable, "rtsp", "capture-frame", "refused", nil),
		},
	}
	handler := capture.NewHandler(cfg, stream)

	result, err := handler.Execute(context.Background(),
		newRequest(&additions.Payload{},
			camera(1, "porch", "192.168.1.30"),
			camera(2, "garage", "192.168.1.31")))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["frames"] != 1 {
		t.Fatalf("expected 1 frame, got %#v", result)
	}
}

func TestCaptureFailsWithZeroFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deadEndpoint := rtsp.Endpoint{Host: "192.168.1.30", Port: cfg.Camera.RTSPPort, Codec: cfg.Camera.StreamCodec, Channel: 1}
	stream := &fakeStream{
		captureErr: map[string]error{
			deadEndpoint.URL(): transport.Wrap(transport.ErrUnreachable, "rtsp", "capture-frame", "refused", nil),
		},
	}
	handler := capture.NewHandler(cfg, stream)

	_, err := handler.Execute(context.Background(),
		newRequest(&additions.Payload{}, camera(1, "porch", "192.168.1.30")))
	if !errors.Is(err, transport.ErrUnreachable) {
		t.Fatalf("expected unreachable marker, got %v", err)
	}
}

func TestCheckConfigPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stream := &fakeStream{}
	handler := capture.NewCheckConfigHandler(cfg, stream)

	result, err := handler.Execute(context.Background(),
		newRequest(&additions.Payload{Channels: []int{1, 2}}, camera(1, "porch", "192.168.1.30")))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["checked"] != 2 {
		t.Fatalf("expected 2 checked endpoints, got %#v", result)
	}
}

func TestCheckConfigFailsOnUnreachableEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deadEndpoint := rtsp.Endpoint{Host: "192.168.1.30", Port: cfg.Camera.RTSPPort, Codec: cfg.Camera.StreamCodec, Channel: 2}
	stream := &fakeStream{
		probeErr: map[string]error{
			deadEndpoint.URL(): transport.Wrap(transport.ErrUnreachable, "rtsp", "probe", "refused", nil),
		},
	}
	handler := capture.NewCheckConfigHandler(cfg, stream)

	_, err := handler.Execute(context.Background(),
		newRequest(&additions.Payload{Channels: []int{1, 2}}, camera(1, "porch", "192.168.1.30")))
	if !errors.Is(err, transport.ErrUnreachable) {
		t.Fatalf("expected unreachable marker, got %v", err)
	}
}

func TestHandlerHealthChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if health := capture.NewHandler(cfg, nil).HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy without client: %#v", health)
	}
	if health := capture.NewHandler(cfg, &fakeStream{}).HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy: %#v", health)
	}
	if health := capture.NewCheckConfigHandler(cfg, &fakeStream{}).HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy: %#v", health)
	}
}
