package testsupport

import (
	"context"
	"testing"

	"xcam/internal/config"
	"xcam/internal/queue"
	"xcam/internal/registry"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue creates a pending action for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, command, additions string) *queue.Action {
	t.Helper()

	action, err := store.Enqueue(context.Background(), command, additions)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return action
}

// RegisterCamera upserts a camera record for tests using the provided registry.
func RegisterCamera(t testing.TB, store *registry.Store, camera registry.Camera) *registry.Camera {
	t.Helper()

	saved, err := store.Upsert(context.Background(), camera)
	if err != nil {
		t.Fatalf("registry.Upsert: %v", err)
	}
	return saved
}
