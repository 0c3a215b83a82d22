package httpcgi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"xcam/internal/transport"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestSendBuildsCommandEnvelope(t *testing.T) {
	var captured *http.Request
	client := NewClient(WithHTTPDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return response(http.StatusOK, "OK"), nil
	})))

	device := Device{Host: "192.168.1.30", Username: "admin", Password: "pw"}
	body, err := client.Send(context.Background(), device, "set_zoom", map[string]any{"level": 3})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if string(body) != "OK" {
		t.Fatalf("unexpected body %q", body)
	}

	if captured == nil {
		t.Fatal("expected request to be issued")
	}
	if captured.URL.Host != "192.168.1.30:8000" {
		t.Fatalf("unexpected host %q", captured.URL.Host)
	}
	query := captured.URL.Query()
	if query.Get("cmd") != "set_zoom" || query.Get("level") != "3" {
		t.Fatalf("unexpected query %q", captured.URL.RawQuery)
	}
	user, pass, ok := captured.BasicAuth()
	if !ok || user != "admin" || pass != "pw" {
		t.Fatalf("expected basic auth, got %q/%q ok=%v", user, pass, ok)
	}
}

func TestSendValidatesInput(t *testing.T) {
	client := NewClient()
	if _, err := client.Send(context.Background(), Device{Host: "10.0.0.1"}, "", nil); !errors.Is(err, transport.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Send(context.Background(), Device{}, "reboot", nil); !errors.Is(err, transport.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, transport.ErrRejected},
		{"forbidden", http.StatusForbidden, transport.ErrRejected},
		{"server error", http.StatusInternalServerError, transport.ErrRejected},
	}
	for _, tc := range cases {
		client := NewClient(WithHTTPDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
			return response(tc.status, "denied"), nil
		})))
		_, err := client.Send(context.Background(), Device{Host: "10.0.0.1"}, "reboot", nil)
		if !errors.Is(err, tc.marker) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.marker, err)
		}
	}
}

func TestSendClassifiesTransportFailure(t *testing.T) {
	client := NewClient(WithHTTPDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connect: no route to host")
	})))
	_, err := client.Send(context.Background(), Device{Host: "10.0.0.1"}, "reboot", nil)
	if !errors.Is(err, transport.ErrUnreachable) {
		t.Fatalf("expected unreachable marker, got %v", err)
	}
}

func TestSendClassifiesDeadline(t *testing.T) {
	client := NewClient(WithHTTPDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})))
	_, err := client.Send(context.Background(), Device{Host: "10.0.0.1"}, "reboot", nil)
	if !errors.Is(err, transport.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}
