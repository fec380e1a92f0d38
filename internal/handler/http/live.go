package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/handler/http/respond"
	"localpulse/internal/infra/source"
	"localpulse/internal/observability/logging"
	"localpulse/internal/usecase/location"
)

// LiveHandler serves the per-category live endpoints backed by the
// aggregation service.
type LiveHandler struct {
	Service *location.Service
	Logger  *slog.Logger
}

// liveResponse wraps one category's records with the query echo.
type liveResponse struct {
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Count       int       `json:"count"`
	Records     any       `json:"records"`
	GeneratedAt time.Time `json:"generated_at"`
}

// queryParams is the parsed and validated form of the shared query string.
type queryParams struct {
	Location string
	Coords   *location.Coordinates
	Radius   int
}

// parseQuery extracts location, optional lat/lng, and optional radius from
// the request. Latitude and longitude must be supplied together.
func parseQuery(r *http.Request) (queryParams, error) {
	loc := r.URL.Query().Get("location")
	if loc == "" {
		return queryParams{}, &entity.ValidationError{Field: "location", Message: "required"}
	}

	p := queryParams{Location: loc}

	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	switch {
	case latStr == "" && lngStr == "":
		// coordinates are optional
	case latStr == "" || lngStr == "":
		return queryParams{}, &entity.ValidationError{Field: "lat", Message: "lat and lng must be supplied together"}
	default:
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return queryParams{}, &entity.ValidationError{Field: "lat", Message: fmt.Sprintf("invalid value %q", latStr)}
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return queryParams{}, &entity.ValidationError{Field: "lng", Message: fmt.Sprintf("invalid value %q", lngStr)}
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return queryParams{}, &entity.ValidationError{Field: "lat", Message: "lat must be in [-90,90] and lng in [-180,180]"}
		}
		p.Coords = &location.Coordinates{Latitude: lat, Longitude: lng}
	}

	if radiusStr := r.URL.Query().Get("radius"); radiusStr != "" {
		radius, err := strconv.Atoi(radiusStr)
		if err != nil || radius <= 0 || radius > 100 {
			return queryParams{}, &entity.ValidationError{Field: "radius", Message: "must be an integer between 1 and 100"}
		}
		p.Radius = radius
	}
	return p, nil
}

// toSourceQuery converts parsed parameters to the adapter-facing query,
// applying the default radius.
func (p queryParams) toSourceQuery() source.Query {
	q := source.Query{Location: p.Location, RadiusMiles: p.Radius}
	if q.RadiusMiles <= 0 {
		q.RadiusMiles = location.DefaultRadiusMiles
	}
	if p.Coords != nil {
		q.Latitude = p.Coords.Latitude
		q.Longitude = p.Coords.Longitude
		q.HasCoords = true
	}
	return q
}

// ServeHTTP handles GET /live/{category}.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := parseQuery(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	category := r.PathValue("category")
	q := params.toSourceQuery()

	var (
		records any
		count   int
	)
	switch category {
	case "events":
		evts := h.Service.Events().Live(r.Context(), q)
		records, count = mapSlice(evts, toEventDTO), len(evts)
	case "news":
		items := h.Service.News().Live(r.Context(), q)
		records, count = mapSlice(items, toNewsDTO), len(items)
	case "deals":
		deals := h.Service.Deals().Live(r.Context(), q)
		records, count = mapSlice(deals, toDealDTO), len(deals)
	case "business":
		listings := h.Service.Business().Live(r.Context(), q)
		records, count = mapSlice(listings, toBusinessDTO), len(listings)
	case "weather":
		if params.Coords == nil {
			respond.SafeError(w, http.StatusBadRequest, errors.New("lat and lng are required for weather"))
			return
		}
		snaps := h.Service.Weather().Live(r.Context(), q)
		records, count = mapSlice(snaps, toWeatherDTO), len(snaps)
	default:
		respond.SafeError(w, http.StatusNotFound, fmt.Errorf("unknown category %q", category))
		return
	}

	logger := logging.WithRequestID(r.Context(), h.Logger)
	logger.Debug("live query served",
		slog.String("category", category),
		slog.String("location", params.Location),
		slog.Int("count", count))

	respond.JSON(w, http.StatusOK, liveResponse{
		Category:    category,
		Location:    params.Location,
		Count:       count,
		Records:     records,
		GeneratedAt: time.Now().UTC(),
	})
}
