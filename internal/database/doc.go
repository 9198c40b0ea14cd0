// Package database provides the SQLite asset catalog used by the filesystem
// asset store.
//
// It stores:
//   - one row per asset under the project root (GUID, path, type, mtime)
//   - the serialized entry list of each named texture group index
//   - metadata such as the last rescan and helper generation times
//
// The database uses WAL mode so the HTTP API can read while the watcher
// writes, and every query is timed into the texdb_db_* Prometheus metrics.
package database
