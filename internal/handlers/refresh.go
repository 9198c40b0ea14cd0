package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"texdb/internal/logging"
	"texdb/internal/texindex"
)

// RefreshResponse reports the outcome of a full refresh.
type RefreshResponse struct {
	Groups   int    `json:"groups"`
	Duration string `json:"duration"`
}

// Refresh rebuilds the index from the catalog. The persist and rescan query
// parameters default to true and false.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	persist, err := boolParam(r, "persist", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rescan, err := boolParam(r, "rescan", false)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	if err := h.index.RefreshAll(r.Context(), persist, rescan); err != nil {
		logging.Error("Refresh requested over HTTP failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, texindex.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, RefreshResponse{
		Groups:   len(h.index.Entries()),
		Duration: time.Since(start).Round(time.Millisecond).String(),
	})
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New("invalid " + name + " parameter: " + raw)
	}
	return v, nil
}
