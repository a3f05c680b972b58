package pipeline

import (
	"context"
	"sync"
	"time"

	"tunegrab/internal/logging"
	"tunegrab/internal/notifications"
	"tunegrab/internal/services"
)

const maxParallel = 16

// BatchResult summarizes a Run. Results are in submission order.
type BatchResult struct {
	Results       []Result      `json:"results"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Duration      time.Duration `json:"duration_ns"`
	DroppedEvents int64         `json:"dropped_events"`
}

// Run acquires every request using at most parallel concurrent workers.
// A failing request never stops its siblings. Cancelling ctx stops workers
// from starting new requests; those are reported as failed in the provision
// stage with the context error.
func (a *Acquirer) Run(ctx context.Context, reqs []Request, parallel int) BatchResult {
	started := time.Now()
	parallel = max(1, min(parallel, maxParallel, max(len(reqs), 1)))
	results := make([]Result, len(reqs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range parallel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				reqCtx := services.WithBatchPosition(ctx, idx+1, len(reqs))
				res, _ := a.Acquire(reqCtx, reqs[idx])
				results[idx] = res
			}
		}()
	}

feed:
	for idx := range reqs {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			for rest := idx; rest < len(reqs); rest++ {
				results[rest] = cancelledResult(reqs[rest], ctx.Err())
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	batch := BatchResult{Results: results, Duration: time.Since(started), DroppedEvents: a.DroppedEvents()}
	for _, res := range results {
		if res.OK() {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}

	a.logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", batch.Succeeded),
		logging.Int("failed", batch.Failed),
		logging.Duration("duration", batch.Duration),
		logging.Int64("dropped_events", batch.DroppedEvents),
	)
	if a.notifier != nil && len(reqs) > 0 {
		// Reported even when ctx was cancelled.
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := a.notifier.Publish(notifyCtx, notifications.EventBatchCompleted, notifications.Payload{
			"succeeded": batch.Succeeded,
			"failed":    batch.Failed,
			"duration":  batch.Duration,
		}); err != nil {
			a.logger.Debug("batch notification failed", logging.Error(err))
		}
	}
	return batch
}

func cancelledResult(req Request, err error) Result {
	stageErr := &StageError{Stage: StageProvision, Err: err}
	return Result{
		RequestID: req.ID,
		Request:   req,
		VideoID:   req.VideoID,
		Stage:     StageProvision,
		Err:       stageErr,
		Error:     stageErr.Error(),
		Category:  services.Category(stageErr),
	}
}
