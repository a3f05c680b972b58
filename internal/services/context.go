package services

import "context"

type contextKey string

const (
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
	batchKey     contextKey = "batch_position"
)

// BatchPosition identifies a request within a batch run.
type BatchPosition struct {
	Index int
	Total int
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatchPosition records the 1-based index of a request within its batch.
func WithBatchPosition(ctx context.Context, index, total int) context.Context {
	if index <= 0 || total <= 0 {
		return ctx
	}
	return context.WithValue(ctx, batchKey, BatchPosition{Index: index, Total: total})
}

// BatchPositionFromContext returns the batch position if present.
func BatchPositionFromContext(ctx context.Context) (BatchPosition, bool) {
	pos, ok := ctx.Value(batchKey).(BatchPosition)
	return pos, ok
}
