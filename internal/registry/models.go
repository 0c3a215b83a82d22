package registry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Status represents camera availability for dispatch.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusActive, StatusInactive:
		return normalized, true
	default:
		return "", false
	}
}

// Camera represents a registered IP camera.
type Camera struct {
	ID         int64
	Name       string
	IPAddress  string
	MACAddress string
	IPType     string
	Username   string
	Password   string
	Channel    int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the camera may receive commands.
func (c *Camera) IsActive() bool {
	return c != nil && c.Status == StatusActive
}

// NormalizeMAC canonicalizes a MAC address to lowercase colon-separated form.
func NormalizeMAC(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("mac address is required")
	}
	hw, err := net.ParseMAC(strings.ReplaceAll(trimmed, "-", ":"))
	if err != nil {
		return "", fmt.Errorf("parse mac address %q: %w", raw, err)
	}
	return strings.ToLower(hw.String()), nil
}

func (c *Camera) normalize() error {
	mac, err := NormalizeMAC(c.MACAddress)
	if err != nil {
		return err
	}
	c.MACAddress = mac

	c.IPAddress = strings.TrimSpace(c.IPAddress)
	if c.IPAddress == "" {
		return errors.New("ip address is required")
	}
	if net.ParseIP(c.IPAddress) == nil {
		return fmt.Errorf("invalid ip address %q", c.IPAddress)
	}

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = c.IPAddress
	}
	c.IPType = strings.ToLower(strings.TrimSpace(c.IPType))
	if c.IPType == "" {
		c.IPType = "dynamic"
	}
	if c.Channel <= 0 {
		c.Channel = 1
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if _, ok := ParseStatus(string(c.Status)); !ok {
		return fmt.Errorf("invalid camera status %q", c.Status)
	}
	return nil
}
