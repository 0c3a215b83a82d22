// Package command describes the contract between the dispatcher and the
// per-command handlers, and keeps the registry that maps command names to
// implementations.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"xcam/internal/additions"
	"xcam/internal/queue"
	"xcam/internal/registry"
)

// Well-known command names.
const (
	CaptureAndStitch = "capture_and_stitch"
	CheckConfig      = "check_config"
)

// Result carries handler output back to the queue; it is merged into the
// action's additions payload under the "result" key.
type Result map[string]any

// Request bundles everything a handler needs to run one claimed action.
type Request struct {
	Action  *queue.Action
	Payload *additions.Payload
	Cameras []*registry.Camera
	Logger  *slog.Logger
}

// Handler executes one command against resolved target cameras.
type Handler interface {
	Command() string
	Execute(ctx context.Context, req Request) (Result, error)
	HealthCheck(ctx context.Context) Health
}

// Health summarizes handler readiness for daemon diagnostics.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Registry maps command names to handlers. It is populated during daemon
// bootstrap and read-only afterwards.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler, replacing any previous entry for the same command.
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("nil handler")
	}
	name := strings.TrimSpace(handler.Command())
	if name == "" {
		return fmt.Errorf("handler has no command name")
	}
	r.handlers[name] = handler
	return nil
}

// SetFallback installs the handler used for commands with no explicit entry.
// The generic device-command handler fills this role.
func (r *Registry) SetFallback(handler Handler) {
	r.fallback = handler
}

// Lookup resolves the handler for a command, falling back to the generic
// handler when one is installed. The second return reports whether anything
// can serve the command.
func (r *Registry) Lookup(commandName string) (Handler, bool) {
	if handler, ok := r.handlers[strings.TrimSpace(commandName)]; ok {
		return handler, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Commands returns the explicitly registered command names, sorted.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthChecks runs every handler's health check.
func (r *Registry) HealthChecks(ctx context.Context) []Health {
	checks := make([]Health, 0, len(r.handlers)+1)
	for _, name := range r.Commands() {
		checks = append(checks, r.handlers[name].HealthCheck(ctx))
	}
	if r.fallback != nil {
		checks = append(checks, r.fallback.HealthCheck(ctx))
	}
	return checks
}
