package transport_test

import (
	"errors"
	"strings"
	"testing"

	"xcam/internal/transport"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := transport.Wrap(transport.ErrExternalTool, "capture", "grab-frame", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, transport.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "grab-frame", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := transport.Wrap(nil, "httpcgi", "reboot", "no response", nil)
	if !errors.Is(err, transport.ErrUnreachable) {
		t.Fatalf("expected unreachable marker, got %v", err)
	}
}

func TestHintMatchesMarker(t *testing.T) {
	cases := []struct {
		marker   error
		fragment string
	}{
		{transport.ErrUnreachable, "reachable"},
		{transport.ErrTimeout, "timeout"},
		{transport.ErrRejected, "credentials"},
		{transport.ErrValidation, "payload"},
		{transport.ErrExternalTool, "daemon log"},
	}
	for _, tc := range cases {
		err := transport.Wrap(tc.marker, "dispatcher", "run", "failed", nil)
		hint := transport.Hint(err)
		if !strings.Contains(hint, tc.fragment) {
			t.Fatalf("expected hint for %v to contain %q, got %q", tc.marker, tc.fragment, hint)
		}
	}
	if hint := transport.Hint(errors.New("plain")); hint != "" {
		t.Fatalf("expected empty hint for unmarked error, got %q", hint)
	}
}
