// Package metrics provides Prometheus instrumentation for texdb.
//
// All metrics are registered with promauto on the default registry and are
// prefixed with "texdb_". The HTTP API exposes them on /metrics; one-shot CLI
// commands record them too, which keeps the instrumentation paths exercised
// by tests.
//
// # Metric Categories
//
// ## Index Metrics
//   - IndexRefreshTotal / IndexRefreshDuration: refresh operations by kind
//     ("record" for a single group, "all" for a full rebuild)
//   - IndexGroupsAdded: groups appended to the index
//   - IndexGroupsRejected: groups discarded at the "validate" or "load" stage
//   - IndexEntries: current entry count
//   - IndexEntriesPruned: deleted entries removed before lookup
//   - IndexLookupsTotal: lookups by result ("hit", "miss")
//
// ## Helper Generation Metrics
//   - HelperGenerationsTotal / HelperGenerationDuration
//
// ## Asset Store Metrics
//   - StoreRefreshTotal / StoreRefreshDuration: project rescans
//   - StoreAssets: tracked assets by type
//   - StoreSavesTotal: modified objects written on Save
//   - StoreDiscardsTotal: invalid groups moved to the trash
//   - TexturesLoaded: texture files read by format and status
//
// ## Database Metrics
//   - DBQueryTotal / DBQueryDuration: catalog queries by operation
//
// ## Filesystem Metrics
//   - FilesystemRetry*: retries after stale NFS file handles
//
// Call InitializeMetrics once at startup so every labelled series is exported
// from the first scrape.
package metrics
