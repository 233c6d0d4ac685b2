package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many admissions pass between purges of stale keys.
const sweepEvery = 1024

// MemoryGate is a process-local Gate. State is lost on restart and is not
// shared between instances.
type MemoryGate struct {
	interval time.Duration
	clock    Clock

	mu       sync.Mutex
	last     map[string]time.Time
	admitted int
}

// NewMemoryGate creates a gate admitting one event per key per interval.
func NewMemoryGate(interval time.Duration, clock Clock) *MemoryGate {
	if clock == nil {
		clock = RealClock{}
	}
	return &MemoryGate{interval: interval, clock: clock, last: make(map[string]time.Time)}
}

// Admit never fails.
func (g *MemoryGate) Admit(_ context.Context, key string) (bool, error) {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.last[key]; ok && now.Sub(prev) < g.interval {
		return false, nil
	}
	g.last[key] = now

	g.admitted++
	if g.admitted%sweepEvery == 0 {
		for k, t := range g.last {
			if now.Sub(t) >= g.interval {
				delete(g.last, k)
			}
		}
	}
	return true, nil
}

// Len returns the number of tracked keys.
func (g *MemoryGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}
