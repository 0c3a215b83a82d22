package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"xcam/internal/registry"
)

type mockCameraReader struct {
	cameras []*registry.Camera
	stats   map[registry.Status]int
	err     error
}

func (m *mockCameraReader) List(context.Context) ([]*registry.Camera, error) {
	return m.cameras, m.err
}

func (m *mockCameraReader) Resolve(context.Context, int64) (*registry.Camera, error) {
	if len(m.cameras) == 0 {
		return nil, m.err
	}
	return m.cameras[0], m.err
}

func (m *mockCameraReader) Stats(context.Context) (map[registry.Status]int, error) {
	return m.stats, m.err
}

func TestCameraService_List(t *testing.T) {
	now := time.Now().UTC()
	svc := NewCameraService(&mockCameraReader{cameras: []*registry.Camera{{
		ID:         4,
		Name:       "porch",
		IPAddress:  "192.168.1.40",
		MACAddress: "aa:bb:cc:dd:ee:04",
		IPType:     "static",
		Username:   "admin",
		Password:   "hunter2",
		Channel:    1,
		Status:     registry.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}})
	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected camera count: %d", len(got))
	}
	if got[0].Name != "porch" || got[0].IPAddress != "192.168.1.40" {
		t.Fatalf("unexpected camera view: %#v", got[0])
	}
	if got[0].Status != string(registry.StatusActive) {
		t.Fatalf("unexpected status: %q", got[0].Status)
	}
}

func TestCameraView_OmitsCredentials(t *testing.T) {
	view := FromCamera(&registry.Camera{
		ID:         1,
		Name:       "porch",
		IPAddress:  "192.168.1.40",
		MACAddress: "aa:bb:cc:dd:ee:04",
		Username:   "admin",
		Password:   "hunter2",
	})
	encoded, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(encoded), "hunter2") || strings.Contains(string(encoded), "admin") {
		t.Fatalf("credentials leaked into payload: %s", encoded)
	}
}

func TestCameraService_Stats(t *testing.T) {
	svc := NewCameraService(&mockCameraReader{stats: map[registry.Status]int{
		registry.StatusActive:   3,
		registry.StatusInactive: 1,
	}})
	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got["active"] != 3 || got["inactive"] != 1 {
		t.Fatalf("unexpected stats: %#v", got)
	}
}

func TestCameraService_DescribeMissing(t *testing.T) {
	svc := NewCameraService(&mockCameraReader{})
	camera, err := svc.Describe(context.Background(), 12)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if camera != nil {
		t.Fatalf("expected nil view for unknown id, got %#v", camera)
	}
}
