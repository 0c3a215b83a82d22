package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreachable marks failures where the camera endpoint never answered.
	ErrUnreachable = errors.New("camera unreachable")
	// ErrTimeout marks operations cancelled by deadline expiry.
	ErrTimeout = errors.New("timeout")
	// ErrRejected marks requests the camera answered but refused.
	ErrRejected = errors.New("request rejected")
	// ErrValidation marks malformed action payloads or camera records.
	ErrValidation = errors.New("validation error")
	// ErrExternalTool marks failures reported by helper binaries such as ffmpeg.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes handler context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnreachable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns an operator-facing suggestion derived from the error marker.
// It is surfaced through logs and the persisted failure note.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrUnreachable):
		return "verify the camera is powered and reachable on the LAN"
	case errors.Is(err, ErrTimeout):
		return "increase the action timeout or check network latency"
	case errors.Is(err, ErrRejected):
		return "check camera credentials and CGI permissions"
	case errors.Is(err, ErrValidation):
		return "fix the action payload and enqueue it again"
	case errors.Is(err, ErrExternalTool):
		return "inspect the helper tool output in the daemon log"
	default:
		return ""
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "transport failure"
	}
	return strings.Join(parts, ": ")
}
