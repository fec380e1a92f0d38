package http

import (
	"log/slog"
	"net/http"
	"time"

	"localpulse/internal/handler/http/respond"
	"localpulse/internal/observability/logging"
	"localpulse/internal/usecase/location"
)

// RefreshHandler serves the explicit cache-invalidation endpoint. Clearing
// is synchronous and cheap; the actual re-fetch happens lazily on the next
// query per cache key.
type RefreshHandler struct {
	Service *location.Service
	Logger  *slog.Logger
}

// ServeHTTP handles POST /refresh.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Service.RefreshAll()
	logging.WithRequestID(r.Context(), h.Logger).Info("caches cleared via refresh endpoint")
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":       "refreshed",
		"refreshed_at": time.Now().UTC().Format(time.RFC3339),
	})
}
