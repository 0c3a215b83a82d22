package logging

import (
	"context"
	"log/slog"

	"xcam/internal/transport"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldActionID is the standardized structured logging key for action identifiers.
	FieldActionID = "action_id"
	// FieldCommand is the standardized structured logging key for action command names.
	FieldCommand = "command"
	// FieldCameraID is the standardized structured logging key for camera identifiers.
	FieldCameraID = "camera_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags records with a machine-matchable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests an operator next step alongside warnings and errors.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := transport.ActionIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldActionID, id))
	}
	if command, ok := transport.CommandFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCommand, command))
	}
	if rid, ok := transport.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
