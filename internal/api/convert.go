package api

import (
	"encoding/json"
	"time"

	"xcam/internal/command"
	"xcam/internal/queue"
	"xcam/internal/registry"
)

// FromAction converts a queue record to its API representation.
func FromAction(action *queue.Action) ActionView {
	if action == nil {
		return ActionView{}
	}

	view := ActionView{
		ID:      action.ID,
		Command: action.Command,
		Status:  string(action.Status),
		Error:   action.FailureNote(),
	}
	if raw := action.Additions; raw != "" && raw != "{}" {
		view.Additions = json.RawMessage(raw)
	}
	view.CreatedAt = FormatTime(action.CreatedAt)
	view.UpdatedAt = FormatTime(action.UpdatedAt)
	return view
}

// FromActions converts a slice of queue records into API views.
func FromActions(actions []*queue.Action) []ActionView {
	if len(actions) == 0 {
		return nil
	}
	out := make([]ActionView, 0, len(actions))
	for _, action := range actions {
		out = append(out, FromAction(action))
	}
	return out
}

// FromCamera converts a registry record to its API representation,
// dropping credentials on the way.
func FromCamera(camera *registry.Camera) CameraView {
	if camera == nil {
		return CameraView{}
	}
	return CameraView{
		ID:         camera.ID,
		Name:       camera.Name,
		IPAddress:  camera.IPAddress,
		MACAddress: camera.MACAddress,
		IPType:     camera.IPType,
		Channel:    camera.Channel,
		Status:     string(camera.Status),
		CreatedAt:  FormatTime(camera.CreatedAt),
		UpdatedAt:  FormatTime(camera.UpdatedAt),
	}
}

// FromCameras converts a slice of registry records into API views.
func FromCameras(cameras []*registry.Camera) []CameraView {
	if len(cameras) == 0 {
		return nil
	}
	out := make([]CameraView, 0, len(cameras))
	for _, camera := range cameras {
		out = append(out, FromCamera(camera))
	}
	return out
}

// MergeActionStats produces a string-keyed representation of action stats.
func MergeActionStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// MergeCameraStats produces a string-keyed representation of camera stats.
func MergeCameraStats(stats map[registry.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromHandlerHealth converts handler readiness reports into API payloads.
func FromHandlerHealth(health []command.Health) []HandlerHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]HandlerHealth, 0, len(health))
	for _, h := range health {
		out = append(out, HandlerHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
