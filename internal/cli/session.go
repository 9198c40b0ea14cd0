package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"texdb/internal/assetstore"
	"texdb/internal/codegen"
	"texdb/internal/logging"
	"texdb/internal/startup"
	"texdb/internal/texindex"
)

// session is an opened project: catalog, helper generator and index.
type session struct {
	cfg      *startup.Config
	store    *assetstore.FileStore
	gen      *codegen.Generator
	index    *texindex.Index
	progress *assetstore.TerminalProgress

	closeOnce sync.Once
	closeErr  error
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := startup.LoadConfig(cfgViper)
	if err != nil {
		return nil, err
	}
	logging.Debug("Project %s, catalog %s", cfg.ProjectDir, cfg.DatabasePath)

	progress := assetstore.NewTerminalProgress(os.Stderr)

	start := time.Now()
	store, err := assetstore.Open(ctx, assetstore.Options{
		Root:         cfg.ProjectDir,
		DatabasePath: cfg.DatabasePath,
		TrashDir:     cfg.TrashDir,
		TrashInvalid: cfg.TrashInvalid,
		Progress:     progress,
	})
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	logging.Debug("Catalog opened in %v", time.Since(start))

	gen, err := codegen.New(store, codegen.Options{
		OutputPath: cfg.HelperOutput,
		Package:    cfg.HelperPackage,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	idx, err := texindex.Open(ctx, store, gen, texindex.Options{
		Name:        cfg.IndexName,
		Description: cfg.IndexDescription,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}

	return &session{cfg: cfg, store: store, gen: gen, index: idx, progress: progress}, nil
}

// Close closes the index and the catalog. Later calls return the first
// result.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.index.Close(), s.store.Close())
	})
	return s.closeErr
}
