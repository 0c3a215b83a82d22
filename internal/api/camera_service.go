package api

import (
	"context"

	"xcam/internal/registry"
)

// CameraReader abstracts registry lookups needed for API queries.
type CameraReader interface {
	List(ctx context.Context) ([]*registry.Camera, error)
	Resolve(ctx context.Context, id int64) (*registry.Camera, error)
	Stats(ctx context.Context) (map[registry.Status]int, error)
}

// CameraService exposes read-only camera operations returning API views.
type CameraService struct {
	store CameraReader
}

// NewCameraService constructs a CameraService around the provided reader.
func NewCameraService(store CameraReader) *CameraService {
	if store == nil {
		return nil
	}
	return &CameraService{store: store}
}

// List returns every registered camera.
func (s *CameraService) List(ctx context.Context) ([]CameraView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	cameras, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FromCameras(cameras), nil
}

// Stats returns camera counts keyed by status string.
func (s *CameraService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeCameraStats(stats), nil
}

// Describe fetches a single camera, nil when the id is unknown.
func (s *CameraService) Describe(ctx context.Context, id int64) (*CameraView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	camera, err := s.store.Resolve(ctx, id)
	if err != nil || camera == nil {
		return nil, err
	}
	view := FromCamera(camera)
	return &view, nil
}
