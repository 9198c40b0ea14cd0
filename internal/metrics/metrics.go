package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index metrics
var (
	IndexRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_index_refresh_total",
			Help: "Total number of index refresh operations",
		},
		[]string{"kind"}, // "record", "all"
	)

	IndexRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "texdb_index_refresh_duration_seconds",
			Help:    "Index refresh duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	IndexGroupsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_index_groups_added_total",
			Help: "Total number of texture groups appended to the index",
		},
	)

	IndexGroupsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_index_groups_rejected_total",
			Help: "Total number of texture groups discarded during refresh",
		},
		[]string{"stage"}, // "validate", "load"
	)

	IndexDiscardFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_index_discard_failures_total",
			Help: "Total number of invalid texture groups the store failed to discard",
		},
	)

	IndexEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "texdb_index_entries",
			Help: "Number of entries currently held by the index",
		},
	)

	IndexEntriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_index_entries_pruned_total",
			Help: "Total number of deleted entries pruned before lookup",
		},
	)

	IndexLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_index_lookups_total",
			Help: "Total number of texture group lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)
)

// Helper generation metrics
var (
	HelperGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_helper_generations_total",
			Help: "Total number of helper file generations",
		},
		[]string{"status"},
	)

	HelperGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "texdb_helper_generation_duration_seconds",
			Help:    "Helper file generation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Asset store metrics
var (
	StoreRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_store_refresh_total",
			Help: "Total number of asset store rescans",
		},
	)

	StoreRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "texdb_store_refresh_duration_seconds",
			Help:    "Asset store rescan duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	StoreAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "texdb_store_assets",
			Help: "Number of assets tracked by the store",
		},
		[]string{"type"},
	)

	StoreSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_store_saves_total",
			Help: "Total number of modified objects written by the store",
		},
		[]string{"kind", "status"}, // kind: "group", "index"
	)

	StoreDiscardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_store_discards_total",
			Help: "Total number of invalid texture groups discarded",
		},
	)

	TexturesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_textures_loaded_total",
			Help: "Total number of texture files read, by format",
		},
		[]string{"format", "status"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "texdb_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors seen",
		},
		[]string{"operation"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_watcher_events_total",
			Help: "Total number of file watcher events",
		},
		[]string{"type"}, // "create", "write", "remove", "rename", "chmod"
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "texdb_watcher_errors_total",
			Help: "Total number of file watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "texdb_watched_directories",
			Help: "Number of directories being watched",
		},
	)

	WatcherFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_watcher_flushes_total",
			Help: "Total number of debounced refreshes triggered by the watcher",
		},
		[]string{"mode", "status"}, // mode: "record", "all"
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texdb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "texdb_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "texdb_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
