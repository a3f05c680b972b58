package logging

import (
	"context"
	"log/slog"

	"tunegrab/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldBatchIndex is the 1-based position of a request within a batch.
	FieldBatchIndex = "batch_index"
	// FieldBatchTotal is the number of requests in the batch.
	FieldBatchTotal = "batch_total"
	// FieldEventType classifies a log line for filtering (stage_start, tool_install, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step on warnings and errors.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if pos, ok := services.BatchPositionFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldBatchIndex, pos.Index), slog.Int(FieldBatchTotal, pos.Total))
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
