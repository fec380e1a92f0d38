// Package ratelimit provides a blocking sliding-window rate limiter for
// outbound calls to external APIs.
//
// Each external provider gets its own Limiter instance sized to that
// provider's documented quota (e.g., a small per-minute budget for a
// maps-style lookup API, a much larger per-day budget for a reviews API).
// Unlike a middleware-style limiter that rejects over-quota requests, this
// limiter never rejects: Wait suspends the caller until admission is safe
// within the rolling window, then records the call instant and returns.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter bounds the rate of outbound calls using sliding-window counting.
//
// Invariant: at no point does the number of recorded call instants within
// windowDuration of "now" exceed limit. Instants older than the window are
// pruned lazily before each admission check; no background goroutine runs.
//
// The zero value is not usable; construct with New.
type Limiter struct {
	name   string
	limit  int
	window time.Duration
	clock  Clock

	mu    sync.Mutex
	calls []time.Time
}

// New creates a Limiter admitting at most limit calls per window.
// It panics if limit < 1 or window <= 0, since a limiter that can never
// admit is always a wiring bug.
func New(name string, limit int, window time.Duration) *Limiter {
	return NewWithClock(name, limit, window, &SystemClock{})
}

// NewWithClock creates a Limiter with an injected clock for tests.
func NewWithClock(name string, limit int, window time.Duration, clock Clock) *Limiter {
	if limit < 1 {
		panic(fmt.Sprintf("ratelimit: limit must be >= 1, got %d", limit))
	}
	if window <= 0 {
		panic(fmt.Sprintf("ratelimit: window must be positive, got %v", window))
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &Limiter{
		name:   name,
		limit:  limit,
		window: window,
		clock:  clock,
		calls:  make([]time.Time, 0, limit),
	}
}

// Name returns the provider name this limiter guards.
func (l *Limiter) Name() string { return l.name }

// Wait blocks until a call may be admitted within the rolling window, then
// records the call instant and returns nil. Quota pressure never produces an
// error, only delay; the sole error outcome is context cancellation.
//
// Admission is re-checked after each sleep because another waiter may have
// claimed the freed slot first.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		delay, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter %s: %w", l.name, ctx.Err())
		}
	}
}

// tryAcquire prunes stale instants and either claims a slot (returning
// ok=true) or reports how long until the oldest in-window instant expires.
func (l *Limiter) tryAcquire() (delay time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.prune(now)

	if len(l.calls) < l.limit {
		l.calls = append(l.calls, now)
		return 0, true
	}

	// Window is full: the next slot opens when the oldest remaining
	// instant ages out.
	delay = l.window - now.Sub(l.calls[0])
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay, false
}

// prune drops recorded instants older than the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// InFlight returns the number of call instants currently inside the window.
// Exposed for observability and tests.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clock.Now())
	return len(l.calls)
}
