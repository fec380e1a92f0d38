package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/usecase/aggregate"
	"localpulse/internal/usecase/location"
)

type stubFetcher[T any] struct {
	name   string
	result source.Result[T]
}

func (s *stubFetcher[T]) Name() string { return s.name }

func (s *stubFetcher[T]) Fetch(ctx context.Context, q source.Query) source.Result[T] {
	return s.result
}

func testService() *location.Service {
	day := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	events := &stubFetcher[entity.Event]{
		name: "community-events",
		result: source.OK([]entity.Event{{
			ID: "ev-1", Title: "Farmers Market", Venue: "Market Square",
			StartsAt: day, Source: "community-events", Verified: true,
		}}),
	}
	news := &stubFetcher[entity.NewsItem]{
		name: "news-search",
		result: source.OK([]entity.NewsItem{{
			ID: "n-1", Title: "Bridge reopens", URL: "http://example.test/a",
			PublishedAt: day, Source: "Gazette", Verified: true,
		}}),
	}
	deals := &stubFetcher[entity.Deal]{
		name: "dining-deals",
		result: source.OK([]entity.Deal{{
			ID: "d-1", BusinessName: "Corner Cafe", Title: "Lunch special",
			Discount: "20% off", Source: "dining-deals", Verified: true,
		}}),
	}
	weather := &stubFetcher[entity.WeatherSnapshot]{
		name: "forecast-api",
		result: source.OK([]entity.WeatherSnapshot{{
			Source: "forecast-api", Conditions: "Sunny", TempF: 61, Verified: true,
		}}),
	}
	biz := &stubFetcher[entity.BusinessListing]{
		name: "business-search",
		result: source.OK([]entity.BusinessListing{{
			ID: "b-1", Name: "Corner Cafe", Address: "100 Main St",
			Source: "business-search", Verified: true,
		}}),
	}

	return location.NewService(
		aggregate.NewEvents(time.Minute, events),
		aggregate.NewNews(time.Minute, news),
		aggregate.NewDeals(time.Minute, deals),
		aggregate.NewWeather(time.Minute, weather),
		aggregate.NewBusiness(time.Minute, biz),
	)
}

func testRouter() http.Handler {
	return NewRouter(RouterConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Service: testService(),
		Version: "test",
	})
}

func TestLiveEvents(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/live/events?location=Pittsburgh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Category string     `json:"category"`
		Location string     `json:"location"`
		Count    int        `json:"count"`
		Records  []EventDTO `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "events", body.Category)
	assert.Equal(t, "Pittsburgh", body.Location)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Records, 1)
	assert.Equal(t, "Farmers Market", body.Records[0].Title)
	assert.True(t, body.Records[0].Verified)
}

func TestLiveRequiresLocation(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/live/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "field 'location': required")
}

func TestLiveUnknownCategory(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/live/horoscopes?location=Pittsburgh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown category")
}

func TestLiveWeatherRequiresCoordinates(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/live/weather?location=Pittsburgh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/live/weather?location=Pittsburgh&lat=40.44&lng=-79.99", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sunny")
}

func TestParseQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{"lat without lng", "/live/events?location=X&lat=40.4", "lat and lng must be supplied together"},
		{"non-numeric lat", "/live/events?location=X&lat=abc&lng=-79.9", "invalid value"},
		{"out of range lng", "/live/events?location=X&lat=40.4&lng=200", "lng in [-180,180]"},
		{"radius too large", "/live/events?location=X&radius=500", "field 'radius'"},
		{"radius not a number", "/live/events?location=X&radius=wide", "field 'radius'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			_, err := parseQuery(req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var valErr *entity.ValidationError
			assert.ErrorAs(t, err, &valErr)
			assert.ErrorIs(t, err, entity.ErrValidationFailed)
		})
	}
}

func TestLocationSnapshotIncludesWeatherOnlyWithCoords(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/location?location=Pittsburgh&lat=40.44&lng=-79.99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var withCoords SnapshotDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withCoords))
	require.NotNil(t, withCoords.Weather)
	assert.Equal(t, "Sunny", withCoords.Weather.Conditions)
	assert.Len(t, withCoords.Events, 1)
	assert.Len(t, withCoords.News, 1)
	assert.Len(t, withCoords.Deals, 1)

	req = httptest.NewRequest(http.MethodGet, "/location?location=Pittsburgh", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var withoutCoords SnapshotDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withoutCoords))
	assert.Nil(t, withoutCoords.Weather)
	assert.NotNil(t, withoutCoords.Events)
}

func TestRefreshEndpoint(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "refreshed")
}

func TestHealthz(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Version)
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	router := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestClientLimiterRejectsBurstOverflow(t *testing.T) {
	router := NewRouter(RouterConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Service:       testService(),
		Version:       "test",
		ClientLimiter: NewClientLimiter(1, 2),
	})

	codes := make([]int, 0, 4)
	var lastBody string
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		lastBody = rec.Body.String()
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])

	// The throttled response says what happened instead of masking the
	// message as an internal error.
	assert.Contains(t, lastBody, "rate limit exceeded")
	assert.NotContains(t, lastBody, "internal server error")
}

func TestClientLimiterIsolatesClients(t *testing.T) {
	limiter := NewClientLimiter(1, 1)
	assert.True(t, limiter.allow("203.0.113.1"))
	assert.False(t, limiter.allow("203.0.113.1"))
	assert.True(t, limiter.allow("203.0.113.2"))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		remote string
		want   string
	}{
		{
			name:   "x-forwarded-for single",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.9") },
			remote: "203.0.113.7:1234",
			want:   "198.51.100.9",
		},
		{
			name:   "x-forwarded-for chain uses first",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1") },
			remote: "203.0.113.7:1234",
			want:   "198.51.100.9",
		},
		{
			name:   "x-real-ip",
			setup:  func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.10") },
			remote: "203.0.113.7:1234",
			want:   "198.51.100.10",
		},
		{
			name:   "remote addr fallback",
			setup:  func(r *http.Request) {},
			remote: "203.0.113.7:1234",
			want:   "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			tt.setup(req)
			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
