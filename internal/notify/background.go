package notify

import (
	"context"
	"sync"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Notifier delivers one notification.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// BackgroundConfig sizes the Background queue.
type BackgroundConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration // per notification
}

// DefaultBackgroundConfig is used by the notifier in production.
var DefaultBackgroundConfig = BackgroundConfig{Workers: 4, QueueSize: 256, Timeout: 5 * time.Second}

// Background moves delivery off the caller's path. Notify only enqueues; a
// fixed set of workers drains the queue into next. A full queue drops.
type Background struct {
	next    Notifier
	logger  logx.Logger
	dropped counter
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Notification
	wg     sync.WaitGroup
}

// NewBackground starts the workers. A nil next yields nil.
func NewBackground(next Notifier, logger logx.Logger, dropped counter, cfg BackgroundConfig) *Background {
	if next == nil {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBackgroundConfig.Timeout
	}

	b := &Background{
		next:    next,
		logger:  logger,
		dropped: dropped,
		timeout: cfg.Timeout,
		queue:   make(chan domain.Notification, cfg.QueueSize),
	}
	b.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go b.work()
	}
	return b
}

// Notify enqueues n and never blocks. It always returns nil; delivery
// failures are logged by the workers.
func (b *Background) Notify(_ context.Context, n domain.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.drop(n, "closed")
		return nil
	}
	select {
	case b.queue <- n:
	default:
		b.drop(n, "queue full")
	}
	return nil
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to end.
func (b *Background) Close(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Background) work() {
	defer b.wg.Done()
	for n := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err := b.next.Notify(ctx, n)
		cancel()
		if err != nil {
			b.logger.Warn("notification delivery failed",
				logx.String("user_id", n.UserID.String()),
				logx.String("title", n.Title),
				logx.Err(err),
			)
		}
	}
}

func (b *Background) drop(n domain.Notification, reason string) {
	if b.dropped != nil {
		b.dropped.Inc()
	}
	b.logger.Warn("notification dropped",
		logx.String("user_id", n.UserID.String()),
		logx.String("reason", reason),
	)
}
