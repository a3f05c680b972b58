package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tunegrab/internal/logging"
	"tunegrab/internal/services"
)

// runStage executes fn with the stage recorded on the context and logger,
// logs start, completion and failure, and wraps any error in a StageError.
func runStage(ctx context.Context, base *slog.Logger, stage string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, stage)
	logger := logging.WithContext(stageCtx, base)
	started := time.Now()

	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := stageCtx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := callStage(stageCtx, logger, fn); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("error_category", services.Category(err)),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return &StageError{Stage: stage, Err: err}
	}

	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func callStage(ctx context.Context, logger *slog.Logger, fn func(context.Context, *slog.Logger) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return fn(ctx, logger)
}
