package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Payment references only need to outlive client retries; everything
// older is noise in the uniqueness index.
const referenceRetention = 30 * 24 * time.Hour

// ReferenceJanitor removes processed references older than the retention.
type ReferenceJanitor interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob expires old payment reference keys.
type IdempotencyCleanupJob struct {
	Janitor ReferenceJanitor
	Logger  *slog.Logger
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(janitor ReferenceJanitor, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Janitor: janitor, Logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Janitor == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	if err := j.Janitor.Cleanup(ctx, referenceRetention); err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("idempotency references cleaned",
			slog.Duration("retention", referenceRetention))
	}
	return nil
}
