package http

import (
	"net/http"
	"time"

	"localpulse/internal/handler/http/respond"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
}

// HealthHandler reports process liveness. The aggregation layer has no
// hard backing dependencies (no database, no broker): every provider
// failure is absorbed per-adapter, so a running process is a healthy one.
type HealthHandler struct {
	Version   string
	StartedAt time.Time
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.Version,
		Uptime:    time.Since(h.StartedAt).Round(time.Second).String(),
	})
}
