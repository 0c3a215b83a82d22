package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ActionView describes a queued action in a transport-friendly format.
type ActionView struct {
	ID        int64           `json:"id"`
	Command   string          `json:"command"`
	Status    string          `json:"status"`
	Additions json.RawMessage `json:"additions,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// CameraView describes a registered camera. Credentials are never included.
type CameraView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IPAddress  string `json:"ipAddress"`
	MACAddress string `json:"macAddress"`
	IPType     string `json:"ipType"`
	Channel    int    `json:"channel"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// HandlerHealth mirrors readiness reporting for command handlers.
type HandlerHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DispatcherStatus summarizes dispatcher execution state.
type DispatcherStatus struct {
	Running       bool            `json:"running"`
	Workers       int             `json:"workers"`
	ActionStats   map[string]int  `json:"actionStats"`
	LastError     string          `json:"lastError,omitempty"`
	HandlerHealth []HandlerHealth `json:"handlerHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	DatabasePath string           `json:"databasePath"`
	LockFilePath string           `json:"lockFilePath"`
	Cameras      map[string]int   `json:"cameras"`
	Dispatcher   DispatcherStatus `json:"dispatcher"`
}

// ActionStatsResponse provides a normalized action stats payload.
type ActionStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ActionListResponse wraps a collection of actions for API responses.
type ActionListResponse struct {
	Items []ActionView `json:"items"`
}

// ActionResponse wraps a single action.
type ActionResponse struct {
	Item ActionView `json:"item"`
}

// CameraListResponse wraps a collection of cameras.
type CameraListResponse struct {
	Items []CameraView `json:"items"`
}

// CameraResponse wraps a single camera.
type CameraResponse struct {
	Item CameraView `json:"item"`
}

// ScanResponse reports the outcome of a discovery sweep.
type ScanResponse struct {
	Discovered int `json:"discovered"`
}
