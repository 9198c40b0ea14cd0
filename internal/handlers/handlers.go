package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"texdb/internal/assetstore"
	"texdb/internal/middleware"
	"texdb/internal/texturegroup"
)

// Index is the part of the texture index served over HTTP.
type Index interface {
	Name() string
	Len() int
	Entries() []*texturegroup.Group
	Lookup(category, name string) (*texturegroup.Group, bool)
	RefreshAll(ctx context.Context, persist, rescan bool) error
}

// StatsSource reports catalog statistics.
type StatsSource interface {
	Stats(ctx context.Context) (assetstore.Stats, error)
}

// Previewer renders PNG contact sheets.
type Previewer interface {
	Get(ctx context.Context, g *texturegroup.Group) ([]byte, error)
}

// ProgressSource exposes the state of the running index operation.
type ProgressSource interface {
	State() assetstore.ProgressState
}

// Handlers serves the texture index over HTTP.
type Handlers struct {
	index    Index
	stats    StatsSource
	previews Previewer
	progress ProgressSource
	started  time.Time
}

// New returns handlers for idx. previews may be nil to disable contact
// sheets; stats and progress may be nil to leave them out of /healthz.
func New(idx Index, stats StatsSource, previews Previewer, progress ProgressSource) *Handlers {
	return &Handlers{
		index:    idx,
		stats:    stats,
		previews: previews,
		progress: progress,
		started:  time.Now(),
	}
}

// Router builds the API routes with logging and metrics middleware.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.AccessLog(middleware.DefaultAccessLogConfig()))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/groups", h.ListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{category}/{name}", h.GetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{category}/{name}/preview", h.GetPreview).Methods(http.MethodGet)
	api.HandleFunc("/groups/{category}/{name}/textures/{texture}", h.GetTexture).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)

	return r
}
