package handlers

import (
	"net/http"
	"runtime"
	"time"

	"texdb/internal/assetstore"
	"texdb/internal/logging"
	"texdb/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string                   `json:"status"`
	Version      string                   `json:"version"`
	Uptime       string                   `json:"uptime"`
	Index        string                   `json:"index"`
	Groups       int                      `json:"groups"`
	Progress     assetstore.ProgressState `json:"progress"`
	Catalog      *assetstore.Stats        `json:"catalog,omitempty"`
	CatalogErr   string                   `json:"catalogError,omitempty"`
	GoVersion    string                   `json:"goVersion"`
	NumGoroutine int                      `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. A catalog that
// cannot be read reports degraded with a 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Index:        h.index.Name(),
		Groups:       h.index.Len(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if h.progress != nil {
		response.Progress = h.progress.State()
	}

	status := http.StatusOK
	if h.stats != nil {
		stats, err := h.stats.Stats(r.Context())
		if err != nil {
			logging.Warn("Health check could not read catalog: %v", err)
			response.Status = statusDegraded
			response.CatalogErr = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response.Catalog = &stats
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}
