package http

import (
	"log/slog"
	"net/http"

	"localpulse/internal/handler/http/respond"
	"localpulse/internal/observability/logging"
	"localpulse/internal/usecase/location"
)

// LocationHandler serves the combined snapshot endpoint: everything the
// aggregation layer knows about one place in a single response.
type LocationHandler struct {
	Service *location.Service
	Logger  *slog.Logger
}

// ServeHTTP handles GET /location.
func (h *LocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := parseQuery(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	snap := h.Service.Get(r.Context(), params.Location, params.Coords, params.Radius)

	logger := logging.WithRequestID(r.Context(), h.Logger)
	logger.Debug("location snapshot served",
		slog.String("location", params.Location),
		slog.Bool("has_weather", snap.Weather != nil),
		slog.Int("events", len(snap.Events)),
		slog.Int("news", len(snap.News)),
		slog.Int("deals", len(snap.Deals)))

	respond.JSON(w, http.StatusOK, toSnapshotDTO(snap))
}
