// Package ratelimit holds the throttles used by the HTTP surface and the
// location stream: a per-key token bucket and per-key interval gates.
package ratelimit

import "context"

// Limiter is a per-key request limiter.
type Limiter interface {
	Allow(key string) bool
}

// Gate admits at most one event per key per interval.
// Admitting an event starts a new interval for that key.
type Gate interface {
	Admit(ctx context.Context, key string) (bool, error)
}

// NopLimiter is a no-op limiter.
type NopLimiter struct{}

// Allow always returns true.
func (NopLimiter) Allow(string) bool { return true }
