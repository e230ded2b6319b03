package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// ReportWarmer primes a report cache for a window.
type ReportWarmer interface {
	Warm(ctx context.Context, window shared.Window) error
}

// ReportWarmupJob pre-populates the period report cache so the first
// dashboard hit of the day is served warm.
type ReportWarmupJob struct {
	Warmer ReportWarmer
	Logger *slog.Logger
	clock  func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(warmer ReportWarmer, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{
		Warmer: warmer,
		Logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskReportWarmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("report warmup: handler not configured")
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var payload ReportWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	window := shared.MonthWindow(j.clock())
	if payload.From != "" && payload.To != "" {
		parsed, err := shared.ParseWindow(payload.From, payload.To)
		if err != nil {
			return asynq.SkipRetry
		}
		window = parsed
	}

	if err := j.Warmer.Warm(ctx, window); err != nil {
		logger.Error("report warmup failed", slog.Any("error", err), slog.String("window", window.Key()))
		return err
	}
	logger.Info("report cache warmed", slog.String("window", window.Key()))
	return nil
}
