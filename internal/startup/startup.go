package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"texdb/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TEXDB"

// Configuration keys, shared with the CLI flags of the same name.
const (
	KeyProject          = "project"
	KeyDataDir          = "data-dir"
	KeyTrashInvalid     = "trash-invalid"
	KeyIndexName        = "index-name"
	KeyIndexDescription = "index-description"
	KeyHelperOutput     = "helper-output"
	KeyHelperPackage    = "helper-package"
	KeyListen           = "listen"
	KeyDebounce         = "debounce"
	KeyLogLevel         = "log-level"
	KeyPreviewCell      = "preview-cell"
	KeyPreviewColumns   = "preview-columns"
)

// ConfigFileName is the optional per-project configuration file.
const ConfigFileName = "texdb.yaml"

// Config holds all application configuration
type Config struct {
	ProjectDir       string
	DataDir          string
	TrashInvalid     bool
	IndexName        string
	IndexDescription string
	HelperOutput     string
	HelperPackage    string
	Listen           string
	Debounce         time.Duration
	LogLevel         string
	PreviewCell      int
	PreviewColumns   int

	// Derived paths
	DatabasePath string
	TrashDir     string
	PreviewDir   string
}

// SetDefaults registers the default of every configuration key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProject, ".")
	v.SetDefault(KeyDataDir, ".texdb")
	v.SetDefault(KeyTrashInvalid, true)
	v.SetDefault(KeyIndexName, "Editor Textures")
	v.SetDefault(KeyIndexDescription, "Collection of Textures used in the Editor")
	v.SetDefault(KeyHelperOutput, filepath.Join("textures", "textures_gen.go"))
	v.SetDefault(KeyHelperPackage, "textures")
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyDebounce, "500ms")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyPreviewCell, 128)
	v.SetDefault(KeyPreviewColumns, 4)
}

// LoadConfig resolves the configuration from, in increasing priority:
// defaults, <project>/texdb.yaml, <project>/.env, TEXDB_* environment
// variables and flags bound to v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	project, err := filepath.Abs(v.GetString(KeyProject))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory path: %w", err)
	}

	envFile := filepath.Join(project, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v.SetConfigFile(filepath.Join(project, ConfigFileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	if level := v.GetString(KeyLogLevel); level != "" {
		parsed, ok := logging.ParseLevel(level)
		if !ok {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
		logging.SetLevel(parsed)
	}

	debounce, err := time.ParseDuration(v.GetString(KeyDebounce))
	if err != nil || debounce <= 0 {
		logging.Warn("Invalid %s %q, using default: 500ms", KeyDebounce, v.GetString(KeyDebounce))
		debounce = 500 * time.Millisecond
	}

	dataDir := resolve(project, v.GetString(KeyDataDir))
	cfg := &Config{
		ProjectDir:       project,
		DataDir:          dataDir,
		TrashInvalid:     v.GetBool(KeyTrashInvalid),
		IndexName:        v.GetString(KeyIndexName),
		IndexDescription: v.GetString(KeyIndexDescription),
		HelperOutput:     resolve(project, v.GetString(KeyHelperOutput)),
		HelperPackage:    v.GetString(KeyHelperPackage),
		Listen:           v.GetString(KeyListen),
		Debounce:         debounce,
		LogLevel:         logging.GetLevel().String(),
		PreviewCell:      v.GetInt(KeyPreviewCell),
		PreviewColumns:   v.GetInt(KeyPreviewColumns),
		DatabasePath:     filepath.Join(dataDir, "catalog.db"),
		TrashDir:         filepath.Join(dataDir, "trash"),
		PreviewDir:       filepath.Join(dataDir, "previews"),
	}

	if err := ensureDirectory(cfg.ProjectDir, "project", false); err != nil {
		return nil, fmt.Errorf("project directory error: %w", err)
	}
	if err := ensureDirectory(cfg.DataDir, "data", true); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for the catalog): %w", err)
	}

	return cfg, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// LogConfig logs the resolved configuration.
func LogConfig(cfg *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PROJECT:            %s", cfg.ProjectDir)
	logging.Info("  DATA_DIR:           %s", cfg.DataDir)
	logging.Info("  INDEX_NAME:         %s", cfg.IndexName)
	logging.Info("  HELPER_OUTPUT:      %s", cfg.HelperOutput)
	logging.Info("  HELPER_PACKAGE:     %s", cfg.HelperPackage)
	logging.Info("  TRASH_INVALID:      %v", cfg.TrashInvalid)
	logging.Info("  LISTEN:             %s", cfg.Listen)
	logging.Info("  DEBOUNCE:           %v", cfg.Debounce)
	logging.Info("  LOG_LEVEL:          %s", cfg.LogLevel)
	logging.Info("")
}

// LogCatalogInit logs catalog initialization
func LogCatalogInit(duration time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Catalog opened in %v", duration)
}

// LogIndexInit logs index initialization
func LogIndexInit(name string, entries int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEX INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Index:   %s", name)
	logging.Info("  Entries: %d (restored)", entries)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Listen          string
	Watching        bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Listening on:    %s", config.Listen)
	logging.Info("  Metrics:         %s/metrics", config.Listen)
	if config.Watching {
		logging.Info("  File watcher:    ENABLED")
	} else {
		logging.Info("  File watcher:    DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// PrintBanner prints the startup banner and system information.
func PrintBanner() {
	banner := `
------------------------------------------------------------
   __                 ____
  / /____  _  ______/ / /_
 / __/ _ \| |/_/ __  / __ \
/ /_/  __/>  </ /_/ / /_/ /
\__/\___/_/|_|\__,_/_.___/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
	logSystemInfo()
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string, create bool) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if !create {
			return fmt.Errorf("%s does not exist", path)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
