package logging

import (
	"context"
	"log/slog"

	"github.com/Microck/FrameScribe/internal/pipeline"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID is the standardized structured logging key for the run's session identifier.
	FieldSessionID = "session_id"
	// FieldStage is the standardized structured logging key for session state names.
	FieldStage = "stage"
	// FieldEventType classifies a log line (stage_start, stage_failure, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for the user.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := pipeline.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if stage, ok := pipeline.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
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

// WithStage is a convenience wrapper so callers need not import pipeline.
func WithStage(ctx context.Context, stage string) context.Context {
	return pipeline.WithStage(ctx, stage)
}
