// Package httpcgi forwards generic device commands to the camera's HTTP-CGI
// endpoint. The vendor protocol is treated as opaque: commands and parameters
// travel as a query-string envelope and the adapter only classifies the
// response.
package httpcgi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xcam/internal/transport"
)

// HTTPDoer describes the HTTP client used by the CGI adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Device identifies one camera CGI endpoint.
type Device struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Client sends opaque commands to camera CGI endpoints.
type Client struct {
	client  HTTPDoer
	timeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPDoer overrides the underlying HTTP client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithTimeout bounds each request when the caller's context carries no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient constructs a CGI client using defaults.
func NewClient(opts ...Option) *Client {
	client := &Client{
		client:  http.DefaultClient,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Send issues a command with its parameter envelope to the device and returns
// the raw response body on success.
func (c *Client) Send(ctx context.Context, device Device, command string, params map[string]any) ([]byte, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, transport.Wrap(transport.ErrValidation, "httpcgi", "send", "command required", nil)
	}
	if device.Host == "" {
		return nil, transport.Wrap(transport.ErrValidation, "httpcgi", command, "device host required", nil)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.commandURL(device, command, params), nil)
	if err != nil {
		return nil, transport.Wrap(transport.ErrValidation, "httpcgi", command, "build request", err)
	}
	if device.Username != "" {
		req.SetBasicAuth(device.Username, device.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, transport.Wrap(transport.ErrTimeout, "httpcgi", command, device.Host, err)
		}
		return nil, transport.Wrap(transport.ErrUnreachable, "httpcgi", command, device.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, transport.Wrap(transport.ErrUnreachable, "httpcgi", command, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, transport.Wrap(transport.ErrRejected, "httpcgi", command,
			fmt.Sprintf("%s returned %d", device.Host, resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, transport.Wrap(transport.ErrRejected, "httpcgi", command,
			fmt.Sprintf("%s returned %d: %s", device.Host, resp.StatusCode, firstLine(body)), nil)
	}
	return body, nil
}

func (c *Client) commandURL(device Device, command string, params map[string]any) string {
	port := device.Port
	if port <= 0 {
		port = 8000
	}
	values := url.Values{}
	values.Set("cmd", command)
	for key, value := range params {
		values.Set(key, fmt.Sprint(value))
	}
	u := &url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(device.Host, strconv.Itoa(port)),
		Path:     "/cgi-bin/hi3510/param.cgi",
		RawQuery: values.Encode(),
	}
	return u.String()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func firstLine(body []byte) string {
	text := strings.TrimSpace(string(body))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
