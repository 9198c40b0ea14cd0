// Package startup handles configuration loading and startup/shutdown
// logging.
//
// # Configuration
//
// [LoadConfig] resolves every setting through a viper instance. Sources, from
// lowest to highest priority:
//
//   - built-in defaults ([SetDefaults])
//   - <project>/texdb.yaml
//   - <project>/.env (loaded into the environment with godotenv)
//   - TEXDB_* environment variables (TEXDB_HELPER_OUTPUT, TEXDB_LISTEN, ...)
//   - command-line flags bound to the viper instance
//
// Relative paths are resolved against the project directory. The data
// directory (default .texdb) holds the SQLite catalog, the trash for invalid
// manifests and the preview cache; it must be writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
package startup
