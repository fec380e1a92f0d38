// Package http provides the HTTP handlers and middleware for the
// aggregation API: per-category live queries, the combined location
// snapshot, cache refresh, and health endpoints.
package http

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"localpulse/internal/handler/http/requestid"
	"localpulse/internal/handler/http/respond"
	"localpulse/internal/handler/http/responsewriter"
	"localpulse/internal/observability/metrics"
)

// Logging returns middleware that logs HTTP requests with structured
// logging: request details, response status, size, and duration, tagged
// with the request ID for cross-log correlation.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := responsewriter.Wrap(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			logger.Info("request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover returns middleware that catches panics, logs them with a stack
// trace, and converts them into a 500 response instead of crashing the
// server.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					respond.SafeError(w, http.StatusInternalServerError, errors.New("internal error"))

					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Measure returns middleware that records request counts and latency to
// the Prometheus registry. The route pattern (not the raw path) is used as
// the path label to keep cardinality bounded.
func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := responsewriter.Wrap(w)

		next.ServeHTTP(wrapped, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		status := strconv.Itoa(wrapped.StatusCode())
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}

// LimitRequestBody returns middleware that caps request body size.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ClientLimiter applies per-client-IP token-bucket rate limiting to inbound
// requests. Unlike the outbound provider limiters, which delay until
// admission, the inbound side rejects with 429 immediately: a public
// endpoint must not accumulate blocked goroutines on behalf of an abusive
// client.
type ClientLimiter struct {
	limiters sync.Map // ip -> *clientEntry
	rps      rate.Limit
	burst    int

	cleanMu   sync.Mutex
	lastClean time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewClientLimiter creates a per-IP limiter allowing rps sustained
// requests per second with the given burst.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		lastClean: time.Now(),
	}
}

// Limit rejects requests from clients that exceed their budget.
func (cl *ClientLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cl.periodicCleanup()

		if !cl.allow(extractIP(r)) {
			// The message is static and carries no internal detail, so it
			// goes out verbatim rather than through SafeError's masking.
			respond.Error(w, http.StatusTooManyRequests, errors.New("rate limit exceeded, retry later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (cl *ClientLimiter) allow(ip string) bool {
	val, _ := cl.limiters.LoadOrStore(ip, &clientEntry{
		limiter: rate.NewLimiter(cl.rps, cl.burst),
	})
	entry := val.(*clientEntry)

	entry.mu.Lock()
	entry.lastSeen = time.Now()
	entry.mu.Unlock()
	return entry.limiter.Allow()
}

// periodicCleanup drops entries for clients idle longer than ten minutes so
// the map does not grow without bound.
func (cl *ClientLimiter) periodicCleanup() {
	cl.cleanMu.Lock()
	defer cl.cleanMu.Unlock()

	if time.Since(cl.lastClean) < 10*time.Minute {
		return
	}
	cl.lastClean = time.Now()

	cutoff := time.Now().Add(-10 * time.Minute)
	cl.limiters.Range(func(key, value any) bool {
		entry := value.(*clientEntry)
		entry.mu.Lock()
		idle := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			cl.limiters.Delete(key)
		}
		return true
	})
}

// extractIP extracts the client IP from the request, preferring
// X-Forwarded-For and X-Real-IP over RemoteAddr for reverse-proxy setups.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first IP address from a comma-separated list.
func parseFirstIP(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if ip := net.ParseIP(s[:i]); ip != nil {
				return ip.String()
			}
			return ""
		}
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}
