package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// setNX is the part of redis.Cmdable a RedisGate needs.
type setNX interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// RedisGate is a Gate shared by every instance talking to the same Redis.
// Each admission is a SET NX PX, so the key's expiry is the interval.
type RedisGate struct {
	client   setNX
	prefix   string
	interval time.Duration
}

// NewRedisGate creates a gate storing its keys under prefix.
func NewRedisGate(client redis.Cmdable, prefix string, interval time.Duration) *RedisGate {
	return &RedisGate{client: client, prefix: prefix, interval: interval}
}

// Admit reports whether key is outside its interval and starts a new one if so.
func (g *RedisGate) Admit(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, 1, g.interval).Result()
	if err != nil {
		return false, fmt.Errorf("redis gate %s: %w", g.prefix, err)
	}
	return ok, nil
}
