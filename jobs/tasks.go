package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileScan re-derives payment state for every transaction.
	TaskReconcileScan = "ledger:reconcile_scan"
	// TaskReportWarmup primes the period report cache.
	TaskReportWarmup = "reports:warmup"
	// TaskIdempotencyCleanup expires old payment reference keys.
	TaskIdempotencyCleanup = "ledger:idempotency_cleanup"
)

// ReportWarmupPayload selects the window to prime. Empty bounds mean the
// current month.
type ReportWarmupPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// NewReconcileScanTask constructs the reconciliation scan task.
func NewReconcileScanTask() *asynq.Task {
	return asynq.NewTask(TaskReconcileScan, nil)
}

// NewIdempotencyCleanupTask constructs the reference cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NewReportWarmupTask constructs a warmup task for the given window.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
