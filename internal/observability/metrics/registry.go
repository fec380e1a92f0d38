// Package metrics provides centralized Prometheus metrics for the
// aggregation layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track inbound API request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Aggregation metrics track fan-out behavior per record category
var (
	// FanoutDuration measures a full adapter fan-out cycle per category
	FanoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_fanout_duration_seconds",
			Help:    "Duration of a full adapter fan-out cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// AdapterRecordsTotal counts canonical records produced per adapter
	AdapterRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_records_total",
			Help: "Canonical records produced by each source adapter",
		},
		[]string{"category", "source"},
	)

	// AdapterErrorsTotal counts isolated adapter failures by reason
	AdapterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_errors_total",
			Help: "Adapter failures absorbed at the aggregator boundary",
		},
		[]string{"category", "source", "reason"},
	)

	// CacheHitsTotal counts aggregator cache hits per category
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_cache_hits_total",
			Help: "TTL cache hits per category aggregator",
		},
		[]string{"category"},
	)

	// CacheMissesTotal counts aggregator cache misses per category
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_cache_misses_total",
			Help: "TTL cache misses per category aggregator",
		},
		[]string{"category"},
	)

	// RefreshesTotal counts explicit full-cache refreshes
	RefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aggregation_refreshes_total",
			Help: "Explicit refresh-all invocations clearing every cache",
		},
	)

	// RateLimiterWaits measures time spent waiting for admission per provider
	RateLimiterWaits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limiter_wait_seconds",
			Help:    "Time spent waiting for a rate limiter admission slot",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 15, 60},
		},
		[]string{"provider"},
	)
)
