package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/metrics"
	"texdb/internal/texindex"
	"texdb/internal/texturegroup"
)

// DefaultDebounce is the quiet period before a batch of changes is applied.
const DefaultDebounce = 500 * time.Millisecond

// Index is the part of texindex.Index the watcher drives.
type Index interface {
	Rescan(ctx context.Context) error
	RefreshRecord(ctx context.Context, g *texturegroup.Group, opts texindex.RefreshOptions) error
	RefreshAll(ctx context.Context, persist, rescan bool) error
}

// Loader loads texture groups by manifest path.
type Loader interface {
	Load(ctx context.Context, path string) (*texturegroup.Group, error)
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before changes are applied.
	Debounce time.Duration
	// Ignore lists directories whose contents never trigger a refresh.
	Ignore []string
}

// Watcher refreshes the index when texture assets change on disk.
type Watcher struct {
	root     string
	idx      Index
	loader   Loader
	debounce time.Duration
	ignore   []string
}

// New returns a watcher for the project rooted at root.
func New(root string, idx Index, loader Loader, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}
	return &Watcher{
		root:     root,
		idx:      idx,
		loader:   loader,
		debounce: opts.Debounce,
		ignore:   ignore,
	}
}

// change is what a single event asks for.
type change int

const (
	changeNone change = iota
	// changeManifestCreated: a manifest appeared; refreshing that record is enough.
	changeManifestCreated
	// changeStructural: anything else that can alter the index.
	changeStructural
)

// batch collects changes until the debounce timer fires.
type batch struct {
	created    []string
	structural bool
}

func (b *batch) add(c change, path string) {
	switch c {
	case changeManifestCreated:
		if !slices.Contains(b.created, path) {
			b.created = append(b.created, path)
		}
	case changeStructural:
		b.structural = true
	}
}

func (b *batch) empty() bool {
	return len(b.created) == 0 && !b.structural
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	count := w.addDirectories(fw, w.root)
	metrics.WatchedDirectories.Set(float64(count))
	logging.Info("Watching %s (%d directories)", w.root, count)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending batch

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

			if event.Has(fsnotify.Create) && !w.ignored(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					added := w.addDirectories(fw, event.Name)
					metrics.WatchedDirectories.Add(float64(added))
				}
			}

			c := w.classify(event)
			if c == changeNone {
				continue
			}
			logging.Debug("Watcher: %s %s", eventType(event.Op), event.Name)
			pending.add(c, event.Name)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-timer.C:
			if pending.empty() {
				continue
			}
			w.flush(ctx, pending)
			pending = batch{}
		}
	}
}

// flush rescans the store and applies one batch of changes to the index.
func (w *Watcher) flush(ctx context.Context, b batch) {
	mode := "record"
	if b.structural {
		mode = "all"
	}

	err := w.apply(ctx, b)
	status := "success"
	if err != nil {
		status = "error"
		logging.Error("Watcher refresh failed: %v", err)
	}
	metrics.WatcherFlushesTotal.WithLabelValues(mode, status).Inc()
}

func (w *Watcher) apply(ctx context.Context, b batch) error {
	if err := w.idx.Rescan(ctx); err != nil {
		return err
	}

	if b.structural {
		logging.Info("Texture assets changed, refreshing texture database")
		return w.idx.RefreshAll(ctx, true, false)
	}

	for _, path := range b.created {
		g, err := w.loader.Load(ctx, path)
		if err != nil {
			logging.Warn("Watcher: cannot load %s: %v", path, err)
			continue
		}
		opts := texindex.RefreshOptions{Persist: true, RegenerateHelper: true}
		if err := w.idx.RefreshRecord(ctx, g, opts); err != nil {
			return err
		}
	}
	return nil
}

// classify decides what an event means for the index.
func (w *Watcher) classify(event fsnotify.Event) change {
	if w.ignored(event.Name) || event.Op == fsnotify.Chmod {
		return changeNone
	}

	name := filepath.Base(event.Name)
	switch mediatypes.GetAssetType(name) {
	case mediatypes.AssetTypeTextureGroup:
		if event.Has(fsnotify.Create) {
			return changeManifestCreated
		}
		return changeStructural
	case mediatypes.AssetTypeTexture:
		return changeStructural
	}

	// a directory going away may take manifests with it
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if filepath.Ext(name) == "" {
			return changeStructural
		}
	}
	return changeNone
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addDirectories adds dir and every non-hidden directory below it.
func (w *Watcher) addDirectories(fw *fsnotify.Watcher, dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
