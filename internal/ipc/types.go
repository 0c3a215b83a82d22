package ipc

import "xcam/internal/api"

// ActionView mirrors the HTTP API action DTO for internal IPC callers.
type ActionView = api.ActionView

// CameraView mirrors the HTTP API camera DTO for internal IPC callers.
type CameraView = api.CameraView

// HandlerHealth describes readiness of a command handler.
type HandlerHealth = api.HandlerHealth

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon runtime information.
type StatusResponse struct {
	Running       bool            `json:"running"`
	PID           int             `json:"pid"`
	DatabasePath  string          `json:"database_path"`
	LockPath      string          `json:"lock_path"`
	ActionStats   map[string]int  `json:"action_stats"`
	CameraStats   map[string]int  `json:"camera_stats"`
	LastError     string          `json:"last_error"`
	Workers       int             `json:"workers"`
	HandlerHealth []HandlerHealth `json:"handler_health"`
}

// ActionAddRequest enqueues a new action.
type ActionAddRequest struct {
	Command   string `json:"command"`
	Additions string `json:"additions"`
}

// ActionAddResponse returns the stored action.
type ActionAddResponse struct {
	Item ActionView `json:"item"`
}

// ActionListRequest filters action listing by status.
type ActionListRequest struct {
	Statuses []string `json:"statuses"`
}

// ActionListResponse contains queued actions.
type ActionListResponse struct {
	Items []ActionView `json:"items"`
}

// ActionDescribeRequest fetches a single action by id.
type ActionDescribeRequest struct {
	ID int64 `json:"id"`
}

// ActionDescribeResponse contains a single action.
type ActionDescribeResponse struct {
	Item ActionView `json:"item"`
}

// ActionRetryRequest retries failed actions. Empty list means all failed actions.
type ActionRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// ActionRetryResponse reports number of retried actions.
type ActionRetryResponse struct {
	Updated int64 `json:"updated"`
}

// ActionClearRequest removes actions by scope: "all", "done", or "failed".
type ActionClearRequest struct {
	Scope string `json:"scope"`
}

// ActionClearResponse reports number of removed actions.
type ActionClearResponse struct {
	Removed int64 `json:"removed"`
}

// ActionRemoveRequest deletes a single action by id.
type ActionRemoveRequest struct {
	ID int64 `json:"id"`
}

// ActionRemoveResponse reports whether the action existed.
type ActionRemoveResponse struct {
	Removed bool `json:"removed"`
}

// ActionResetRequest resets in-flight actions back to pending.
type ActionResetRequest struct{}

// ActionResetResponse reports number of actions reset.
type ActionResetResponse struct {
	Updated int64 `json:"updated"`
}

// CameraRecord carries full camera details, credentials included, for
// registration over the local socket.
type CameraRecord struct {
	Name       string `json:"name"`
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
	IPType     string `json:"ip_type"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Channel    int    `json:"channel"`
	Status     string `json:"status"`
}

// CameraUpsertRequest registers or updates a camera.
type CameraUpsertRequest struct {
	Camera CameraRecord `json:"camera"`
}

// CameraUpsertResponse returns the stored camera.
type CameraUpsertResponse struct {
	Item CameraView `json:"item"`
}

// CameraImportRequest registers a batch of cameras.
type CameraImportRequest struct {
	Cameras []CameraRecord `json:"cameras"`
}

// CameraImportResponse reports how many cameras were written.
type CameraImportResponse struct {
	Imported int `json:"imported"`
}

// CameraListRequest fetches all registered cameras.
type CameraListRequest struct{}

// CameraListResponse contains registered cameras.
type CameraListResponse struct {
	Items []CameraView `json:"items"`
}

// CameraDescribeRequest fetches a single camera by id.
type CameraDescribeRequest struct {
	ID int64 `json:"id"`
}

// CameraDescribeResponse contains a single camera.
type CameraDescribeResponse struct {
	Item CameraView `json:"item"`
}

// CameraSetStatusRequest activates or deactivates a camera.
type CameraSetStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// CameraSetStatusResponse confirms the status change.
type CameraSetStatusResponse struct {
	Updated bool `json:"updated"`
}

// CameraRemoveRequest deletes a camera by id.
type CameraRemoveRequest struct {
	ID int64 `json:"id"`
}

// CameraRemoveResponse reports whether the camera existed.
type CameraRemoveResponse struct {
	Removed bool `json:"removed"`
}

// ScanRequest triggers a discovery sweep.
type ScanRequest struct{}

// ScanResponse reports how many cameras the sweep registered.
type ScanResponse struct {
	Discovered int `json:"discovered"`
}

// ActionHealthRequest fetches aggregate queue diagnostics.
type ActionHealthRequest struct{}

// ActionHealthResponse reports queue health information.
type ActionHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalActions     int      `json:"total_actions"`
	Error            string   `json:"error"`
}
