// Package location composes the per-category aggregators into a single
// location snapshot. Events, news, and deals are fetched concurrently and
// are always present in the snapshot, even when empty. Weather is an
// optional decoration: it is attempted only when coordinates were supplied
// and any failure inside the attempt leaves the snapshot's weather field
// nil without touching the other categories.
package location

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/observability/metrics"
	"localpulse/internal/usecase/aggregate"
)

// DefaultRadiusMiles bounds the search area when the caller does not
// specify one.
const DefaultRadiusMiles = 25

// Coordinates is an optional latitude/longitude pair for a query.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Snapshot is the combined view of one location at one moment. Events,
// News, and Deals are always non-nil slices; Weather is nil when no
// coordinates were supplied or the weather fetch failed.
type Snapshot struct {
	Location    string
	Events      []entity.Event
	News        []entity.NewsItem
	Deals       []entity.Deal
	Weather     *entity.WeatherSnapshot
	GeneratedAt time.Time
}

// Service owns the category aggregators.
type Service struct {
	events   *aggregate.Aggregator[entity.Event]
	news     *aggregate.Aggregator[entity.NewsItem]
	deals    *aggregate.Aggregator[entity.Deal]
	weather  *aggregate.Aggregator[entity.WeatherSnapshot]
	business *aggregate.Aggregator[entity.BusinessListing]
}

// NewService wires the five category aggregators into a façade.
func NewService(
	events *aggregate.Aggregator[entity.Event],
	news *aggregate.Aggregator[entity.NewsItem],
	deals *aggregate.Aggregator[entity.Deal],
	weather *aggregate.Aggregator[entity.WeatherSnapshot],
	business *aggregate.Aggregator[entity.BusinessListing],
) *Service {
	return &Service{
		events:   events,
		news:     news,
		deals:    deals,
		weather:  weather,
		business: business,
	}
}

// Events exposes the events aggregator for the per-category endpoint.
func (s *Service) Events() *aggregate.Aggregator[entity.Event] { return s.events }

// News exposes the news aggregator for the per-category endpoint.
func (s *Service) News() *aggregate.Aggregator[entity.NewsItem] { return s.news }

// Deals exposes the deals aggregator for the per-category endpoint.
func (s *Service) Deals() *aggregate.Aggregator[entity.Deal] { return s.deals }

// Weather exposes the weather aggregator for the per-category endpoint.
func (s *Service) Weather() *aggregate.Aggregator[entity.WeatherSnapshot] { return s.weather }

// Business exposes the business aggregator for the per-category endpoint.
func (s *Service) Business() *aggregate.Aggregator[entity.BusinessListing] { return s.business }

// Get assembles a full snapshot for the location. The three required
// categories run concurrently; weather joins them only when coords is
// non-nil and cannot fail the snapshot.
func (s *Service) Get(ctx context.Context, loc string, coords *Coordinates, radiusMiles int) Snapshot {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}
	q := source.Query{Location: loc, RadiusMiles: radiusMiles}
	if coords != nil {
		q.Latitude = coords.Latitude
		q.Longitude = coords.Longitude
		q.HasCoords = true
	}

	snap := Snapshot{Location: loc}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Events = s.events.Live(gctx, q)
		return nil
	})
	g.Go(func() error {
		snap.News = s.news.Live(gctx, q)
		return nil
	})
	g.Go(func() error {
		snap.Deals = s.deals.Live(gctx, q)
		return nil
	})
	if q.HasCoords {
		g.Go(func() error {
			snap.Weather = s.fetchWeather(gctx, q)
			return nil
		})
	}
	g.Wait()

	if snap.Events == nil {
		snap.Events = []entity.Event{}
	}
	if snap.News == nil {
		snap.News = []entity.NewsItem{}
	}
	if snap.Deals == nil {
		snap.Deals = []entity.Deal{}
	}
	snap.GeneratedAt = time.Now().UTC()
	return snap
}

// fetchWeather returns the first available provider snapshot or nil. A
// panic anywhere inside the weather path is swallowed here so a broken
// weather provider can only ever cost the snapshot its weather field.
func (s *Service) fetchWeather(ctx context.Context, q source.Query) (snap *entity.WeatherSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("weather fetch panicked", slog.Any("panic", r), slog.String("query", q.Signature()))
			snap = nil
		}
	}()

	snapshots := s.weather.Live(ctx, q)
	if len(snapshots) == 0 {
		return nil
	}
	return &snapshots[0]
}

// RefreshAll clears every category cache so the next query per key
// re-fetches from the providers. Failed fetches are not retried on their
// own; dropping the caches is the only force-refresh mechanism.
func (s *Service) RefreshAll() {
	s.events.ClearCache()
	s.news.ClearCache()
	s.deals.ClearCache()
	s.weather.ClearCache()
	s.business.ClearCache()
	metrics.RecordRefresh()
	slog.Info("all category caches cleared")
}
