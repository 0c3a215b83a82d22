package command_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"xcam/internal/additions"
	"xcam/internal/command"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
	"xcam/internal/transport"
	"xcam/internal/transport/httpcgi"
)

type stubHandler struct {
	name string
}

func (s *stubHandler) Command() string { return s.name }

func (s *stubHandler) Execute(context.Context, command.Request) (command.Result, error) {
	return nil, nil
}

func (s *stubHandler) HealthCheck(context.Context) command.Health {
	return command.Healthy(s.name)
}

func TestRegistryLookup(t *testing.T) {
	reg := command.NewRegistry()
	if err := reg.Register(&stubHandler{name: command.CheckConfig}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, ok := reg.Lookup("check_config"); !ok {
		t.Fatal("expected registered handler")
	}
	if _, ok := reg.Lookup("reboot"); ok {
		t.Fatal("expected no handler without fallback")
	}

	reg.SetFallback(&stubHandler{name: "device"})
	handler, ok := reg.Lookup("reboot")
	if !ok || handler.Command() != "device" {
		t.Fatalf("expected fallback handler, got %v %v", handler, ok)
	}

	if got := reg.Commands(); !reflect.DeepEqual(got, []string{command.CheckConfig}) {
		t.Fatalf("unexpected command list %v", got)
	}
}

func TestRegistryRejectsBadHandlers(t *testing.T) {
	reg := command.NewRegistry()
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
	if err := reg.Register(&stubHandler{name: " "}); err == nil {
		t.Fatal("expected error for unnamed handler")
	}
}

type stubSender struct {
	calls []string
	fail  error
}

func (s *stubSender) Send(ctx context.Context, device httpcgi.Device, cmd string, params map[string]any) ([]byte, error) {
	s.calls = append(s.calls, device.Host+"/"+cmd)
	if s.fail != nil {
		return nil, s.fail
	}
	return []byte("OK"), nil
}

func deviceRequest() command.Request {
	return command.Request{
		Action:  &queue.Action{ID: 1, Command: "set_zoom"},
		Payload: &additions.Payload{Params: map[string]any{"level": 2}},
		Cameras: []*registry.Camera{
			{ID: 1, Name: "porch", IPAddress: "192.168.1.30", Username: "admin", Password: "pw"},
			{ID: 2, Name: "garage", IPAddress: "192.168.1.31"},
		},
		Logger: logging.NewNop(),
	}
}

func TestDeviceHandlerFansOut(t *testing.T) {
	sender := &stubSender{}
	handler := command.NewDeviceHandler(sender, 8000)

	result, err := handler.Execute(context.Background(), deviceRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 sends, got %v", sender.calls)
	}
	acks, ok := result["acknowledged"].(map[string]any)
	if !ok || acks["porch"] != "OK" || acks["garage"] != "OK" {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestDeviceHandlerPropagatesFailure(t *testing.T) {
	sender := &stubSender{fail: transport.Wrap(transport.ErrUnreachable, "httpcgi", "set_zoom", "10.0.0.1", nil)}
	handler := command.NewDeviceHandler(sender, 8000)

	_, err := handler.Execute(context.Background(), deviceRequest())
	if !errors.Is(err, transport.ErrUnreachable) {
		t.Fatalf("expected unreachable marker, got %v", err)
	}
}

func TestDeviceHandlerHealth(t *testing.T) {
	if health := command.NewDeviceHandler(nil, 0).HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy without sender: %#v", health)
	}
	if health := command.NewDeviceHandler(&stubSender{}, 0).HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy with sender: %#v", health)
	}
}
