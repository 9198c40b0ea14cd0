package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"texdb/internal/handlers"
	"texdb/internal/logging"
	"texdb/internal/preview"
	"texdb/internal/startup"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the texture index over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String(startup.KeyListen, ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Refresh the index when files change")
	_ = cfgViper.BindPFlag(startup.KeyListen, serveCmd.Flags().Lookup(startup.KeyListen))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	startup.PrintBanner()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	startup.LogConfig(s.cfg)
	startup.LogCatalogInit(time.Since(startTime))
	if err := s.index.RefreshAll(ctx, true, false); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	startup.LogIndexInit(s.index.Name(), len(s.index.Entries()))

	h := handlers.New(s.index, s.store, preview.NewCache(s.cfg.PreviewDir, previewOptions(s)), s.progress)
	router := h.Router()
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	watchDone := make(chan error, 1)
	if serveWatch {
		go func() { watchDone <- runWatcher(ctx, s) }()
	} else {
		close(watchDone)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Listen:          s.cfg.Listen,
		Watching:        serveWatch,
		StartupDuration: time.Since(startTime),
	})

	select {
	case err := <-serveErr:
		stop()
		<-watchDone
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	startup.LogShutdownInitiated("interrupt")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping file watcher")
	if err := <-watchDone; err != nil {
		logging.Warn("Watcher error: %v", err)
	}
	startup.LogShutdownStepComplete("File watcher stopped")

	startup.LogShutdownStep("Closing catalog")
	if err := s.Close(); err != nil {
		logging.Warn("Catalog close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Catalog closed")
	}

	startup.LogShutdownComplete()
	return nil
}
