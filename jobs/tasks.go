package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceWarmup rebuilds the cached finance reports.
	TaskFinanceWarmup = "finance:warmup"

	// warmupUniqueWindow collapses warmups enqueued in a burst of submissions.
	warmupUniqueWindow = time.Minute
)

// FinanceWarmupPayload says why a warmup was requested.
type FinanceWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewFinanceWarmupTask constructs a warmup task.
func NewFinanceWarmupTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	data, err := json.Marshal(FinanceWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceWarmup, data), nil
}
