package handlers

import (
	"net/http"
	"time"

	"github.com/remixweb/site/internal/server/responses"
)

// MonitoringHandlers serves health and uptime endpoints.
type MonitoringHandlers struct {
	startTime time.Time
}

// NewMonitoringHandlers creates monitoring handlers.
func NewMonitoringHandlers() *MonitoringHandlers {
	return &MonitoringHandlers{startTime: time.Now()}
}

// Health handles GET /healthz.
func (h *MonitoringHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	responses.JSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}
