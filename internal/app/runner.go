package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// MustRun starts the HTTP server using the provided DI container.
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

type apiIn struct {
	dig.In

	Ctx      context.Context
	Logger   logx.Logger
	Server   *http.Server
	Ops      *opsServer
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Producer *kafka.Producer
	Notices  *notify.Background `optional:"true"`
}

func run(container *dig.Container) error {
	return container.Invoke(func(in apiIn) error {
		errCh := make(chan error, 2)
		startServer(in.Server, "service-dispatch", in.Logger, errCh)
		if in.Ops != nil {
			startServer(in.Ops.srv, "ops", in.Logger, errCh)
		}

		var runErr error
		select {
		case <-in.Ctx.Done():
			in.Logger.Info("shutting down service-dispatch")
		case runErr = <-errCh:
			in.Logger.Error("server stopped unexpectedly", logx.Err(runErr))
		}

		gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
		if in.Ops != nil {
			gracefulShutdown(in.Ops.srv, in.Logger, shutdownTimeout)
		}
		closeResources(in)
		return runErr
	})
}

func startServer(server *http.Server, name string, logger logx.Logger, errCh chan<- error) {
	go func() {
		logger.Info("listening", logx.String("server", name), logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.String("addr", srv.Addr), logx.Err(err))
	}
}

func closeResources(in apiIn) {
	drainNotices(in.Notices, in.Logger)
	if err := in.Producer.Close(); err != nil {
		in.Logger.Error("kafka producer close error", logx.Err(err))
	}
	closeRedis(in.Redis, in.Logger)
	if in.Pool != nil {
		in.Pool.Close()
	}
}

// drainNotices waits for queued notifications before the producer closes.
func drainNotices(q *notify.Background, logger logx.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		logger.Warn("notification queue not drained", logx.Err(err))
	}
}
