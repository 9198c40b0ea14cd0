package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"texdb/internal/logging"
	"texdb/internal/startup"
	"texdb/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index up to date while texture groups change on disk",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration(startup.KeyDebounce, watcher.DefaultDebounce, "Quiet period before changes are applied")
	_ = cfgViper.BindPFlag(startup.KeyDebounce, watchCmd.Flags().Lookup(startup.KeyDebounce))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	startup.LogConfig(s.cfg)
	if err := s.index.RefreshAll(ctx, true, false); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	startup.LogIndexInit(s.index.Name(), len(s.index.Entries()))

	logging.Info("Watching %s (Ctrl+C to stop)", s.cfg.ProjectDir)
	return runWatcher(ctx, s)
}

func newWatcher(s *session) *watcher.Watcher {
	return watcher.New(s.cfg.ProjectDir, s.index, s.store, watcher.Options{
		Debounce: s.cfg.Debounce,
		Ignore:   []string{s.cfg.DataDir},
	})
}

func runWatcher(ctx context.Context, s *session) error {
	start := time.Now()
	err := newWatcher(s).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watcher: %w", err)
	}
	logging.Info("Watcher stopped after %v", time.Since(start).Round(time.Second))
	return nil
}
