package source

import (
	"context"
	"log/slog"
	"time"

	"localpulse/internal/observability/metrics"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

// Guard bundles the rate limiter and circuit breaker that every adapter
// runs its provider call through. Both are optional: a nil limiter skips
// admission control (used by tests), a nil breaker calls straight through.
type Guard struct {
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuard creates a Guard from a limiter and breaker, either of which may
// be nil.
func NewGuard(limiter *ratelimit.Limiter, breaker *circuitbreaker.CircuitBreaker) *Guard {
	return &Guard{limiter: limiter, breaker: breaker}
}

// Call executes fn behind the guard's rate limiter and circuit breaker and
// converts every failure into a Result. This is the single choke point that
// enforces the adapter boundary rule: no provider error propagates as an
// error past the adapter.
func Call[T any](ctx context.Context, g *Guard, name string, fn func(ctx context.Context) ([]T, error)) Result[T] {
	if g != nil && g.limiter != nil {
		waitStart := time.Now()
		if err := g.limiter.Wait(ctx); err != nil {
			return Fail[T](err)
		}
		metrics.RecordLimiterWait(name, time.Since(waitStart))
	}

	var records []T
	var err error
	if g != nil && g.breaker != nil {
		var out interface{}
		out, err = g.breaker.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err == nil {
			records = out.([]T)
		}
	} else {
		records, err = fn(ctx)
	}

	if err != nil {
		slog.Warn("source fetch failed",
			slog.String("source", name),
			slog.String("reason", ErrReason(err)),
			slog.Any("error", err))
		return Fail[T](err)
	}
	return OK(records)
}
