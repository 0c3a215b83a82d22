package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a queued action.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var (
	// ErrNotFound indicates the referenced action does not exist.
	ErrNotFound = errors.New("action not found")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Action represents a queued camera command persisted in SQLite.
type Action struct {
	ID        int64
	Command   string
	Additions string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DatabaseHealth captures diagnostic information about the action database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalActions     int
	Error            string
}

// HealthSummary describes aggregated action counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	InProgress int
	Done       int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the action lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// AdditionsMap decodes the additions payload into a generic map. An empty
// payload decodes to an empty map.
func (a *Action) AdditionsMap() (map[string]any, error) {
	return decodeAdditions(a.Additions)
}

// FailureNote returns the persisted failure message, if any.
func (a *Action) FailureNote() string {
	payload, err := a.AdditionsMap()
	if err != nil {
		return ""
	}
	if note, ok := payload["error"].(string); ok {
		return note
	}
	return ""
}

func decodeAdditions(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("decode additions: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func encodeAdditions(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode additions: %w", err)
	}
	return string(data), nil
}

// NormalizeAdditions validates a raw additions payload and returns its
// canonical JSON form. Empty input normalizes to an empty object.
func NormalizeAdditions(raw string) (string, error) {
	payload, err := decodeAdditions(raw)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "{}", nil
	}
	return encodeAdditions(payload)
}

// mergeAdditions sets key to value inside the raw additions payload,
// preserving every other field the caller enqueued.
func mergeAdditions(raw, key string, value any) (string, error) {
	payload, err := decodeAdditions(raw)
	if err != nil {
		return "", err
	}
	payload[key] = value
	return encodeAdditions(payload)
}
