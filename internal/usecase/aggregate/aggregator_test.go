package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

type stubFetcher[T any] struct {
	name   string
	result source.Result[T]
	calls  atomic.Int32
}

func (s *stubFetcher[T]) Name() string { return s.name }

func (s *stubFetcher[T]) Fetch(ctx context.Context, q source.Query) source.Result[T] {
	s.calls.Add(1)
	return s.result
}

func event(title, venue string, starts time.Time, src string) entity.Event {
	return entity.Event{
		ID:       fmt.Sprintf("%s-%s", src, title),
		Title:    title,
		Venue:    venue,
		StartsAt: starts,
		Source:   src,
		Verified: true,
	}
}

func TestLiveMergesSurvivorsWhenSomeAdaptersFail(t *testing.T) {
	day := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	healthy1 := &stubFetcher[entity.Event]{
		name:   "community-events",
		result: source.OK([]entity.Event{event("Farmers Market", "Market Square", day, "community-events")}),
	}
	healthy2 := &stubFetcher[entity.Event]{
		name:   "ticketing",
		result: source.OK([]entity.Event{event("Jazz Night", "The Attic", day.Add(2 * time.Hour), "ticketing")}),
	}
	down := &stubFetcher[entity.Event]{
		name:   "hockey-schedule",
		result: source.Fail[entity.Event](&source.HTTPError{StatusCode: 503, URL: "http://example.test"}),
	}
	unconfigured := &stubFetcher[entity.Event]{
		name:   "football-schedule",
		result: source.Fail[entity.Event](source.ErrMissingCredential),
	}

	agg := NewEvents(time.Minute, healthy1, healthy2, down, unconfigured)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh", RadiusMiles: 25})

	require.Len(t, got, 2)
	assert.Equal(t, "Farmers Market", got[0].Title)
	assert.Equal(t, "Jazz Night", got[1].Title)
}

func TestLiveMergesPlaceholderRecordsAlongsideErrorDescriptor(t *testing.T) {
	day := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	placeholder := event("Farmers Market", "Market Square", day, "community-events")
	placeholder.Verified = false

	degraded := &stubFetcher[entity.Event]{
		name: "community-events",
		result: source.Result[entity.Event]{
			Records: []entity.Event{placeholder},
			Err:     source.ErrMissingCredential,
		},
	}

	agg := NewEvents(time.Minute, degraded)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh", RadiusMiles: 25})

	require.Len(t, got, 1)
	assert.False(t, got[0].Verified)
}

func TestLiveCollapsesSameEventFromTwoAdapters(t *testing.T) {
	// The same game surfaced by the league schedule and a ticketing
	// platform, differing in casing and time-of-day detail, must appear
	// once with the first-registered adapter winning.
	gameDay := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	league := &stubFetcher[entity.Event]{
		name:   "hockey-schedule",
		result: source.OK([]entity.Event{event("Team X vs Team Y", "Arena A", gameDay, "hockey-schedule")}),
	}
	ticketing := &stubFetcher[entity.Event]{
		name:   "ticketing",
		result: source.OK([]entity.Event{event("TEAM X VS TEAM Y", "arena a", gameDay.Add(5*time.Minute), "ticketing")}),
	}

	agg := NewEvents(time.Minute, league, ticketing)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh", RadiusMiles: 25})

	require.Len(t, got, 1)
	assert.Equal(t, "hockey-schedule", got[0].Source)
}

func TestLiveSortsEventsChronologically(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &stubFetcher[entity.Event]{
		name: "community-events",
		result: source.OK([]entity.Event{
			event("Later", "Venue C", base.Add(48*time.Hour), "community-events"),
			event("Soonest", "Venue A", base, "community-events"),
			event("Middle", "Venue B", base.Add(24*time.Hour), "community-events"),
		}),
	}

	agg := NewEvents(time.Minute, f)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh"})

	require.Len(t, got, 3)
	assert.Equal(t, "Soonest", got[0].Title)
	assert.Equal(t, "Middle", got[1].Title)
	assert.Equal(t, "Later", got[2].Title)
}

func TestLiveTruncatesToCategoryLimit(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var records []entity.Event
	for i := 0; i < maxEvents+20; i++ {
		records = append(records, event(fmt.Sprintf("Event %03d", i), fmt.Sprintf("Venue %03d", i), base.Add(time.Duration(i)*time.Hour), "community-events"))
	}
	f := &stubFetcher[entity.Event]{name: "community-events", result: source.OK(records)}

	agg := NewEvents(time.Minute, f)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh"})

	assert.Len(t, got, maxEvents)
}

func TestLiveServesSecondCallFromCache(t *testing.T) {
	f := &stubFetcher[entity.NewsItem]{
		name: "news-search",
		result: source.OK([]entity.NewsItem{{
			Title: "Bridge reopens", URL: "http://example.test/a", Source: "Gazette",
		}}),
	}

	agg := NewNews(time.Minute, f)
	q := source.Query{Location: "Pittsburgh", RadiusMiles: 25}

	first := agg.Live(context.Background(), q)
	second := agg.Live(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLiveCachesPerQuerySignature(t *testing.T) {
	f := &stubFetcher[entity.NewsItem]{
		name:   "news-search",
		result: source.OK([]entity.NewsItem{{Title: "Story", URL: "http://example.test/a", Source: "Gazette"}}),
	}

	agg := NewNews(time.Minute, f)
	agg.Live(context.Background(), source.Query{Location: "Pittsburgh", RadiusMiles: 25})
	agg.Live(context.Background(), source.Query{Location: "Cleveland", RadiusMiles: 25})
	agg.Live(context.Background(), source.Query{Location: "pittsburgh", RadiusMiles: 25})

	// Distinct locations are distinct keys; casing is not.
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestClearCacheForcesRefetch(t *testing.T) {
	f := &stubFetcher[entity.Deal]{
		name: "dining-deals",
		result: source.OK([]entity.Deal{{
			BusinessName: "Corner Cafe", Title: "Lunch special", Discount: "20% off", Source: "dining-deals",
		}}),
	}

	agg := NewDeals(time.Minute, f)
	q := source.Query{Location: "Pittsburgh", RadiusMiles: 25}

	agg.Live(context.Background(), q)
	agg.ClearCache()
	agg.Live(context.Background(), q)

	assert.Equal(t, int32(2), f.calls.Load())
}

func TestLiveReturnsEmptyWhenEveryAdapterFails(t *testing.T) {
	a := &stubFetcher[entity.BusinessListing]{
		name:   "business-search",
		result: source.Fail[entity.BusinessListing](errors.New("connection refused")),
	}

	agg := NewBusiness(time.Minute, a)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh"})

	assert.Empty(t, got)
}

func TestDealsSortSoonestExpiringFirstWithOpenEndedLast(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &stubFetcher[entity.Deal]{
		name: "coupon-api",
		result: source.OK([]entity.Deal{
			{BusinessName: "A", Title: "Open ended", Discount: "10% off", Source: "coupon-api"},
			{BusinessName: "B", Title: "Expires late", Discount: "10% off", ExpiresAt: now.Add(72 * time.Hour), Source: "coupon-api"},
			{BusinessName: "C", Title: "Expires soon", Discount: "10% off", ExpiresAt: now.Add(2 * time.Hour), Source: "coupon-api"},
		}),
	}

	agg := NewDeals(time.Minute, f)
	got := agg.Live(context.Background(), source.Query{Location: "Pittsburgh"})

	require.Len(t, got, 3)
	assert.Equal(t, "Expires soon", got[0].Title)
	assert.Equal(t, "Expires late", got[1].Title)
	assert.Equal(t, "Open ended", got[2].Title)
}

func TestDedupeIsIdempotent(t *testing.T) {
	day := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	records := []entity.Event{
		event("Team X vs Team Y", "Arena A", day, "hockey-schedule"),
		event("Team X vs Team Y", "Arena A", day, "ticketing"),
		event("Jazz Night", "The Attic", day, "ticketing"),
	}

	once := Dedupe(records, EventKey)
	twice := Dedupe(once, EventKey)

	require.Len(t, once, 2)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second dedupe pass changed the result (-once +twice):\n%s", diff)
	}
}

func TestDedupeKeepsRecordsWithEmptyKeys(t *testing.T) {
	records := []entity.NewsItem{
		{Title: "No URL so invalid"},
		{Title: "No URL so invalid"},
		{Title: "Real story", URL: "http://example.test/a", Source: "Gazette"},
	}

	got := Dedupe(records, NewsKey)
	assert.Len(t, got, 3)
}

func TestWeatherDedupesPerProvider(t *testing.T) {
	records := []entity.WeatherSnapshot{
		{Source: "forecast-api", Conditions: "Sunny"},
		{Source: "forecast-api", Conditions: "Sunny again"},
		{Source: "gov-forecast", Conditions: "Clear"},
	}

	agg := NewWeather(time.Minute)
	got := Dedupe(records, agg.cfg.Key)

	require.Len(t, got, 2)
	assert.Equal(t, "forecast-api", got[0].Source)
	assert.Equal(t, "gov-forecast", got[1].Source)
}

// contextFetcher fails the way a real adapter does when its outbound HTTP
// call is cut short by request cancellation.
type contextFetcher[T any] struct {
	name   string
	result source.Result[T]
	calls  atomic.Int32
}

func (s *contextFetcher[T]) Name() string { return s.name }

func (s *contextFetcher[T]) Fetch(ctx context.Context, q source.Query) source.Result[T] {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return source.Fail[T](err)
	}
	return s.result
}

func TestLiveDoesNotCacheResultOfAbortedRequest(t *testing.T) {
	day := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	adapter := &contextFetcher[entity.Event]{
		name:   "community-events",
		result: source.OK([]entity.Event{event("Farmers Market", "Market Square", day, "community-events")}),
	}
	agg := NewEvents(time.Hour, adapter)
	q := source.Query{Location: "Pittsburgh", RadiusMiles: 25}

	aborted, cancel := context.WithCancel(context.Background())
	cancel()

	got := agg.Live(aborted, q)
	assert.Empty(t, got)
	assert.EqualValues(t, 1, adapter.calls.Load())

	// The empty merge from the aborted run must not have been cached: a
	// healthy caller on the same key triggers a fresh fan-out.
	got = agg.Live(context.Background(), q)
	require.Len(t, got, 1)
	assert.Equal(t, "Farmers Market", got[0].Title)
	assert.EqualValues(t, 2, adapter.calls.Load())
}
