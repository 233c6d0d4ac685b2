// Package jobs runs scheduled background work of the worker process.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"service-dispatch/internal/logx"
)

// Expirer expires pending requests whose deadline has passed.
type Expirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// ExpiryMetrics records sweep results.
type ExpiryMetrics interface {
	ObserveExpired(n int64)
}

const defaultSweepTimeout = 10 * time.Second

// ExpiryJob periodically sweeps stale delivery requests.
type ExpiryJob struct {
	expirer Expirer
	metrics ExpiryMetrics
	cron    *cron.Cron
	logger  logx.Logger
	timeout time.Duration
}

// NewExpiryJob creates the sweep job. Overlapping runs are skipped.
func NewExpiryJob(expirer Expirer, metrics ExpiryMetrics, logger logx.Logger) *ExpiryJob {
	if logger == nil {
		logger = logx.Nop()
	}
	return &ExpiryJob{
		expirer: expirer,
		metrics: metrics,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With(logx.String("component", "expiry_job")),
		timeout: defaultSweepTimeout,
	}
}

// Start schedules the sweep with a cron spec such as "@every 30s".
func (j *ExpiryJob) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("expiry job started", logx.String("schedule", spec))
	return nil
}

// Stop prevents new runs and waits for a running sweep, bounded by ctx.
func (j *ExpiryJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.logger.Info("expiry job stopped")
	case <-ctx.Done():
		j.logger.Warn("expiry job stop timed out", logx.Err(ctx.Err()))
	}
}

// RunOnce performs a single sweep.
func (j *ExpiryJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.expirer.ExpireStale(ctx)
	if err != nil {
		j.logger.Error("expiry sweep failed", logx.Err(err))
		return
	}
	if j.metrics != nil {
		j.metrics.ObserveExpired(n)
	}
	if n > 0 {
		j.logger.Info("expired stale requests", logx.Int64("count", n))
	}
}
