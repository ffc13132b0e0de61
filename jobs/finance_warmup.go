package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/soleilcom/gestion/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer rebuilds cached reports.
type Warmer interface {
	Warm(ctx context.Context) error
}

// FinanceWarmupJob pre-computes the finance reports of every period.
type FinanceWarmupJob struct {
	Finance Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewFinanceWarmupJob wires dependencies for the warmup handler.
func NewFinanceWarmupJob(finance Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FinanceWarmupJob {
	return &FinanceWarmupJob{Finance: finance, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes finance warmup tasks.
func (j *FinanceWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Finance == nil {
		return errors.New("finance warmup: handler not configured")
	}
	var payload FinanceWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskFinanceWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := j.Finance.Warm(ctx); err != nil {
		logger.Error("finance warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("finance warmup completed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *FinanceWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFinanceWarmup))
}

func (j *FinanceWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
