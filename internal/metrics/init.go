package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"record", "all"} {
		IndexRefreshTotal.WithLabelValues(kind)
		IndexRefreshDuration.WithLabelValues(kind)
	}

	for _, stage := range []string{"validate", "load"} {
		IndexGroupsRejected.WithLabelValues(stage)
	}

	for _, result := range []string{"hit", "miss"} {
		IndexLookupsTotal.WithLabelValues(result)
	}

	for _, status := range []string{"success", "error"} {
		HelperGenerationsTotal.WithLabelValues(status)
		for _, kind := range []string{"group", "index"} {
			StoreSavesTotal.WithLabelValues(kind, status)
		}
	}

	for _, t := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(t)
	}

	for _, mode := range []string{"record", "all"} {
		for _, status := range []string{"success", "error"} {
			WatcherFlushesTotal.WithLabelValues(mode, status)
		}
	}

	for _, t := range []string{"TextureGroup", "Texture"} {
		StoreAssets.WithLabelValues(t)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "sync_assets", "get_asset", "assets_by_type",
		"delete_asset", "save_index", "load_index", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
