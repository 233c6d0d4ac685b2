package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/jobs"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the background worker: the orders consumer and the expiry sweep.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner.
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun runs the worker until its context is cancelled.
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

type workerIn struct {
	dig.In

	Ctx      context.Context
	Config   *config.Config
	Logger   logx.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Producer *kafka.Producer
	Notices  *notify.Background `optional:"true"`
	Consumer *kafka.Consumer
	Expiry   *jobs.ExpiryJob
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(in workerIn) error {
	if in.Consumer == nil && in.Config.Dispatch.ExpirySweep == "" {
		return fmt.Errorf("worker has nothing to run: set KAFKA_BROKERS or DISPATCH_EXPIRY_SWEEP")
	}
	defer closeWorker(in)

	if in.Config.Dispatch.ExpirySweep != "" {
		if err := in.Expiry.Start(in.Config.Dispatch.ExpirySweep); err != nil {
			return fmt.Errorf("schedule expiry sweep: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			in.Expiry.Stop(stopCtx)
		}()
	}

	in.Logger.Info("service-dispatch-worker started", logx.Bool("kafka", in.Consumer != nil))
	if in.Consumer == nil {
		<-in.Ctx.Done()
		return in.Ctx.Err()
	}
	return in.Consumer.Run(in.Ctx)
}

func closeWorker(in workerIn) {
	if err := in.Consumer.Close(); err != nil {
		in.Logger.Error("kafka consumer close error", logx.Err(err))
	}
	drainNotices(in.Notices, in.Logger)
	if err := in.Producer.Close(); err != nil {
		in.Logger.Error("kafka producer close error", logx.Err(err))
	}
	closeRedis(in.Redis, in.Logger)
	if in.Pool != nil {
		in.Pool.Close()
	}
}
