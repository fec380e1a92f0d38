package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"localpulse/internal/handler/http/requestid"
	"localpulse/internal/observability/tracing"
	"localpulse/internal/usecase/location"
)

// maxRequestBodyBytes caps inbound bodies. The API is read-mostly; even
// the refresh endpoint carries no payload.
const maxRequestBodyBytes = 64 * 1024

// RouterConfig carries the handler dependencies.
type RouterConfig struct {
	Logger        *slog.Logger
	Service       *location.Service
	Version       string
	ClientLimiter *ClientLimiter
}

// NewRouter assembles the full handler chain: request ID tagging, tracing,
// logging, panic recovery, Prometheus measurement, per-client rate limiting,
// and body limits around the route mux.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Measure wraps each route individually because the route pattern is
	// only attached to the request the mux hands down.
	mux.Handle("GET /live/{category}", Measure(&LiveHandler{Service: cfg.Service, Logger: cfg.Logger}))
	mux.Handle("GET /location", Measure(&LocationHandler{Service: cfg.Service, Logger: cfg.Logger}))
	mux.Handle("POST /refresh", Measure(&RefreshHandler{Service: cfg.Service, Logger: cfg.Logger}))
	mux.Handle("GET /healthz", Measure(&HealthHandler{Version: cfg.Version, StartedAt: time.Now()}))
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = LimitRequestBody(maxRequestBodyBytes)(handler)
	if cfg.ClientLimiter != nil {
		handler = cfg.ClientLimiter.Limit(handler)
	}
	handler = Recover(cfg.Logger)(handler)
	handler = Logging(cfg.Logger)(handler)
	// Tracing sits inside the request ID middleware so spans can carry the
	// request ID as an attribute.
	handler = tracing.Middleware(handler)
	handler = requestid.Middleware(handler)
	return handler
}
