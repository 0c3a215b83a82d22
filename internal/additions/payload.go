// Package additions decodes the JSON payload attached to queued actions.
//
// The payload selects target cameras (by registry id or MAC list), names the
// channels to operate on, and carries opaque parameters for generic device
// commands. Unknown keys are preserved so failure notes and results merged by
// the store never clobber caller data.
package additions

import (
	"encoding/json"
	"fmt"
	"strings"

	"xcam/internal/transport"
)

// Payload is the decoded additions envelope of a queued action.
type Payload struct {
	CameraID     int64          `json:"camera_id,omitempty"`
	MACAddresses []string       `json:"mac_addresses,omitempty"`
	Channels     []int          `json:"channels,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// Decode parses a raw additions document into a Payload. An empty document is
// a valid payload with no selector.
func Decode(raw string) (*Payload, error) {
	trimmed := strings.TrimSpace(raw)
	payload := &Payload{}
	if trimmed == "" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(trimmed), payload); err != nil {
		return nil, transport.Wrap(transport.ErrValidation, "additions", "decode", "malformed payload", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

// Validate checks selector shape: non-negative camera id, parseable MACs, and
// channels restricted to the two streams the cameras expose.
func (p *Payload) Validate() error {
	if p.CameraID < 0 {
		return transport.Wrap(transport.ErrValidation, "additions", "validate",
			fmt.Sprintf("camera_id %d must be positive", p.CameraID), nil)
	}
	for _, channel := range p.Channels {
		if channel != 1 && channel != 2 {
			return transport.Wrap(transport.ErrValidation, "additions", "validate",
				fmt.Sprintf("channel %d not supported (must be 1 or 2)", channel), nil)
		}
	}
	for _, mac := range p.MACAddresses {
		if strings.TrimSpace(mac) == "" {
			return transport.Wrap(transport.ErrValidation, "additions", "validate", "empty mac address in selector", nil)
		}
	}
	return nil
}

// HasSelector reports whether the payload names any target camera.
func (p *Payload) HasSelector() bool {
	return p.CameraID > 0 || len(p.MACAddresses) > 0
}

// NormalizedChannels returns the requested channels, deduplicated and in
// request order, defaulting to channel 1.
func (p *Payload) NormalizedChannels() []int {
	if len(p.Channels) == 0 {
		return []int{1}
	}
	seen := make(map[int]struct{}, len(p.Channels))
	channels := make([]int, 0, len(p.Channels))
	for _, channel := range p.Channels {
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		channels = append(channels, channel)
	}
	return channels
}
