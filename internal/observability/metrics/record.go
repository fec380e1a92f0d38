package metrics

import "time"

// RecordFanout records the duration of one full adapter fan-out cycle for a
// category.
func RecordFanout(category string, duration time.Duration) {
	FanoutDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordAdapterResult records the outcome of a single adapter invocation.
// A nil-error invocation contributes its record count; a failed one
// increments the error counter with the given reason.
func RecordAdapterResult(category, source string, records int, errReason string) {
	if errReason != "" {
		AdapterErrorsTotal.WithLabelValues(category, source, errReason).Inc()
		return
	}
	AdapterRecordsTotal.WithLabelValues(category, source).Add(float64(records))
}

// RecordCacheHit increments the cache hit counter for a category.
func RecordCacheHit(category string) {
	CacheHitsTotal.WithLabelValues(category).Inc()
}

// RecordCacheMiss increments the cache miss counter for a category.
func RecordCacheMiss(category string) {
	CacheMissesTotal.WithLabelValues(category).Inc()
}

// RecordRefresh increments the refresh-all counter.
func RecordRefresh() {
	RefreshesTotal.Inc()
}

// RecordLimiterWait records how long an adapter waited for rate limiter
// admission before issuing its call.
func RecordLimiterWait(provider string, wait time.Duration) {
	RateLimiterWaits.WithLabelValues(provider).Observe(wait.Seconds())
}
