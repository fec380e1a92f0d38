// Package aggregate implements the category aggregators. Each aggregator
// owns one TTL cache and one set of source adapters for its record category.
// A live query hits the cache first; on a miss it fans out to every adapter
// concurrently, merges the survivors, deduplicates first-seen-wins, sorts,
// truncates, caches, and returns. The aggregator itself never fails: an
// entirely empty result is a valid outcome when every adapter errored or
// returned nothing.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"localpulse/internal/cache"
	"localpulse/internal/infra/source"
	"localpulse/internal/observability/metrics"
	"localpulse/internal/observability/tracing"
)

// Config describes one category's merge behavior.
type Config[T any] struct {
	// Category names the record category in cache keys, logs, and metrics.
	Category string

	// TTL is the freshness window for cached results.
	TTL time.Duration

	// MaxRecords truncates the merged result to bound payload size.
	// Zero means unbounded.
	MaxRecords int

	// Key computes the category-specific composite dedup key.
	Key func(T) string

	// Less orders two records by the category's natural ordering.
	// Nil keeps merge order.
	Less func(a, b T) bool
}

// Aggregator produces a freshness-bounded, deduplicated, sorted view of one
// category for a query signature. It exclusively owns its cache and its
// adapter set; callers interact only through Live and ClearCache.
type Aggregator[T any] struct {
	cfg      Config[T]
	adapters []source.Fetcher[T]
	cache    *cache.Cache[[]T]
}

// New creates an Aggregator from a config and its source adapters.
func New[T any](cfg Config[T], adapters ...source.Fetcher[T]) *Aggregator[T] {
	return &Aggregator[T]{
		cfg:      cfg,
		adapters: adapters,
		cache:    cache.New[[]T](),
	}
}

// Category returns the category name.
func (a *Aggregator[T]) Category() string { return a.cfg.Category }

// Live returns the current merged view for the query. Results are served
// from cache while fresh; concurrent misses on the same key are coalesced
// into a single fan-out.
func (a *Aggregator[T]) Live(ctx context.Context, q source.Query) []T {
	key := a.cfg.Category + ":" + q.Signature()

	if records, ok := a.cache.Get(key); ok {
		metrics.RecordCacheHit(a.cfg.Category)
		return records
	}
	metrics.RecordCacheMiss(a.cfg.Category)

	records, err := a.cache.GetOrCompute(ctx, key, a.cfg.TTL, func(ctx context.Context) ([]T, error) {
		merged := a.fanOut(ctx, q)
		if ctx.Err() != nil {
			// An aborted request makes every adapter fail instantly.
			// Caching that empty merge would pin it on this key for the
			// full TTL; fail the compute instead so nothing is stored
			// and the next miss re-fetches.
			return nil, fmt.Errorf("aggregate %s: fan-out aborted: %w", a.cfg.Category, ctx.Err())
		}
		return merged, nil
	})
	if err != nil {
		// Only a cancelled or expired request context reaches here. The
		// aborting caller gets an empty view; the cache stays untouched.
		return nil
	}
	return records
}

// ClearCache drops every cached result for this category. The next Live
// call for any key performs a full re-fetch.
func (a *Aggregator[T]) ClearCache() {
	a.cache.Clear()
}

// fanOut queries all adapters concurrently, waits for every one to settle,
// and merges their records in adapter registration order so that dedup's
// first-seen-wins rule is deterministic.
func (a *Aggregator[T]) fanOut(ctx context.Context, q source.Query) []T {
	ctx, span := tracing.StartSpan(ctx, a.cfg.Category+" fan-out")
	defer span.End()

	start := time.Now()
	results := make([]source.Result[T], len(a.adapters))

	var g errgroup.Group
	for i, adapter := range a.adapters {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("adapter panicked",
						slog.String("category", a.cfg.Category),
						slog.String("source", adapter.Name()),
						slog.Any("panic", r))
					results[i] = source.Fail[T](fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r))
				}
			}()
			// A failing adapter contributes an empty record set; it must
			// never cancel or delay its siblings, so no error propagates.
			results[i] = adapter.Fetch(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	var merged []T
	failures := 0
	for i, res := range results {
		name := a.adapters[i].Name()
		metrics.RecordAdapterResult(a.cfg.Category, name, len(res.Records), source.ErrReason(res.Err))
		if res.Err != nil {
			failures++
		}
		// Records accompany the error descriptor on placeholder paths;
		// merge whatever the adapter produced either way.
		merged = append(merged, res.Records...)
	}

	merged = Dedupe(merged, a.cfg.Key)
	if a.cfg.Less != nil {
		sort.SliceStable(merged, func(i, j int) bool { return a.cfg.Less(merged[i], merged[j]) })
	}
	if a.cfg.MaxRecords > 0 && len(merged) > a.cfg.MaxRecords {
		merged = merged[:a.cfg.MaxRecords]
	}

	duration := time.Since(start)
	metrics.RecordFanout(a.cfg.Category, duration)
	slog.Info("category fan-out completed",
		slog.String("category", a.cfg.Category),
		slog.String("query", q.Signature()),
		slog.Int("adapters", len(a.adapters)),
		slog.Int("failures", failures),
		slog.Int("records", len(merged)),
		slog.Duration("duration", duration))

	return merged
}

// Dedupe removes records whose composite key was already seen, keeping the
// first occurrence. Records with an empty key are kept as-is. The operation
// is idempotent: applying it to its own output removes nothing further.
func Dedupe[T any](records []T, key func(T) string) []T {
	if key == nil {
		return records
	}
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, r := range records {
		k := key(r)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
