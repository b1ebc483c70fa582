package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultIdempotencyRetention applies when the payload carries no window.
const DefaultIdempotencyRetention = 72 * time.Hour

// KeyCleaner deletes idempotency keys older than a window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges stale idempotency keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics JobMetrics
}

// NewIdempotencyCleanupJob wires dependencies for the handler.
func NewIdempotencyCleanupJob(store KeyCleaner, logger *slog.Logger, metrics JobMetrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	retention := DefaultIdempotencyRetention
	if len(t.Payload()) > 0 {
		var payload IdempotencyCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.RetentionHours > 0 {
			retention = time.Duration(payload.RetentionHours) * time.Hour
		}
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskIdempotencyCleanup, err)
		}
	}()

	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		logOrDefault(j.Logger).Error("idempotency cleanup", slog.Any("error", err))
		return err
	}
	logOrDefault(j.Logger).Info("idempotency cleanup done",
		slog.Int64("removed", removed),
		slog.Duration("retention", retention))
	return nil
}
