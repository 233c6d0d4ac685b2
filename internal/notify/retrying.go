package notify

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"service-dispatch/internal/logx"
)

type counter interface {
	Inc()
}

// RetryConfig controls RetryingPublisher backoff.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig is used by the notifier in production.
var DefaultRetryConfig = RetryConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

// RetryingPublisher retries transient broker failures with exponential backoff.
type RetryingPublisher struct {
	next    Publisher
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingPublisher wraps next. A nil next yields nil.
func NewRetryingPublisher(next Publisher, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingPublisher {
	if next == nil {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingPublisher{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Publish forwards to the wrapped publisher until it succeeds, fails
// permanently, runs out of attempts or ctx ends.
func (p *RetryingPublisher) Publish(ctx context.Context, key string, value []byte) error {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		err := p.next.Publish(ctx, key, value)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == p.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(p.cfg.BaseDelay, p.cfg.MaxDelay, attempt)
		if p.retries != nil {
			p.retries.Inc()
		}
		p.logger.Warn("notification publish retry",
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

// isRetryable reports broker errors that clear up once leadership settles.
func isRetryable(err error) bool {
	for _, kerr := range []sarama.KError{
		sarama.ErrLeaderNotAvailable,
		sarama.ErrNotLeaderForPartition,
		sarama.ErrRequestTimedOut,
		sarama.ErrNotEnoughReplicas,
		sarama.ErrNotEnoughReplicasAfterAppend,
	} {
		if errors.Is(err, kerr) {
			return true
		}
	}
	return errors.Is(err, sarama.ErrOutOfBrokers)
}

func backoff(base, limit time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > limit {
		return limit
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
