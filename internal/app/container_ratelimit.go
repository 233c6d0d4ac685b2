package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"service-dispatch/internal/config"
	rlmw "service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/ratelimit"
)

const (
	liveGatePrefix    = "dispatch:loc:live:"
	historyGatePrefix = "dispatch:loc:hist:"
)

func newRateLimiter(cfg *config.Config, clock ratelimit.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewTokenBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

// newRateLimitMiddleware returns nil when rate limiting is disabled.
func newRateLimitMiddleware(
	cfg *config.Config,
	logger logx.Logger,
	reg prometheus.Registerer,
	limiter ratelimit.Limiter,
) (*rlmw.Middleware, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	counter := metrics.NewRateLimitExceededTotal()
	if err := reg.Register(counter); err != nil {
		return nil, err
	}
	return rlmw.New(logger, counter, limiter), nil
}

// trackingGates throttle location reports: Live per courier, History per delivery.
type trackingGates struct {
	Live    ratelimit.Gate
	History ratelimit.Gate
}

// newTrackingGates shares throttle state through redis when a client is
// configured, otherwise keeps it in process.
func newTrackingGates(cfg *config.Config, rdb *redis.Client, clock ratelimit.Clock) trackingGates {
	if rdb != nil {
		return trackingGates{
			Live:    ratelimit.NewRedisGate(rdb, liveGatePrefix, cfg.Tracking.LiveInterval),
			History: ratelimit.NewRedisGate(rdb, historyGatePrefix, cfg.Tracking.HistoryInterval),
		}
	}
	return trackingGates{
		Live:    ratelimit.NewMemoryGate(cfg.Tracking.LiveInterval, clock),
		History: ratelimit.NewMemoryGate(cfg.Tracking.HistoryInterval, clock),
	}
}
