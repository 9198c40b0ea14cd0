package texindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"texdb/internal/assetstore"
	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/metrics"
	"texdb/internal/texturegroup"
)

// DefaultName is the name under which the index persists its entries.
const DefaultName = "Editor Textures"

// DefaultDescription is used when Options.Description is empty.
const DefaultDescription = "Collection of Textures used in the Editor"

const progressTitle = "Texture Database"

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("texture index is closed")

// Progress receives progress updates while the index refreshes.
type Progress = assetstore.Progress

// AssetStore is the project's content database as seen by the index.
type AssetStore interface {
	FindAssetsByType(ctx context.Context, typeName string) ([]string, error)
	ResolveID(ctx context.Context, id string) (string, error)
	Load(ctx context.Context, path string) (*texturegroup.Group, error)
	MarkModified(obj any)
	Discard(ctx context.Context, g *texturegroup.Group, res texturegroup.Result) error
	Save(ctx context.Context) error
	Refresh(ctx context.Context) error
	LoadIndex(ctx context.Context, name string) ([]string, error)
	Progress() Progress
}

// HelperGenerator regenerates the source file listing the indexed groups.
// persist and rescan are forwarded to the asset store once the file is
// written.
type HelperGenerator interface {
	Run(ctx context.Context, groups []*texturegroup.Group, persist, rescan bool) error
}

// Options configures an Index.
type Options struct {
	Name        string
	Description string
}

// RefreshOptions controls what RefreshRecord does after the record is indexed.
type RefreshOptions struct {
	// Persist saves pending store modifications.
	Persist bool
	// Rescan rescans the asset store.
	Rescan bool
	// RegenerateHelper runs the helper generator, which then takes care of
	// Persist and Rescan.
	RegenerateHelper bool
}

// Index is the ordered list of texture groups known to a tool session.
// Entries are held by pointer; a group is never listed twice, but two
// different groups may share a category and name.
type Index struct {
	store       AssetStore
	gen         HelperGenerator
	name        string
	description string

	mu      sync.Mutex
	entries []*texturegroup.Group
	closed  bool
}

// Open creates the session's index and restores the entries persisted under
// opts.Name. Persisted entries that no longer resolve stay in the list as
// deleted groups until the next prune.
func Open(ctx context.Context, store AssetStore, gen HelperGenerator, opts Options) (*Index, error) {
	if store == nil {
		return nil, errors.New("texindex: nil asset store")
	}
	if gen == nil {
		return nil, errors.New("texindex: nil helper generator")
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}

	idx := &Index{
		store:       store,
		gen:         gen,
		name:        opts.Name,
		description: opts.Description,
	}

	ids, err := store.LoadIndex(ctx, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("restoring index %q: %w", opts.Name, err)
	}

	for _, id := range ids {
		g, err := idx.resolve(ctx, id)
		if err != nil {
			logging.Debug("Index entry %s no longer resolves: %v", id, err)
			g = texturegroup.New(id, "", texturegroup.Manifest{}, nil)
			g.MarkDeleted()
		}
		if !slices.Contains(idx.entries, g) {
			idx.entries = append(idx.entries, g)
		}
	}

	metrics.IndexEntries.Set(float64(len(idx.entries)))
	logging.Debug("Opened texture index %q with %d entries", idx.name, len(idx.entries))
	return idx, nil
}

// Close ends the session. Unsaved store modifications are left to the store.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	idx.closed = true
	idx.entries = nil
	return nil
}

// Name returns the name the index persists its entries under.
func (idx *Index) Name() string {
	return idx.name
}

// Description returns the free-form index description.
func (idx *Index) Description() string {
	return idx.description
}

// Len returns the number of entries, including deleted ones not yet pruned.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// Entries returns the live entries in index order.
func (idx *Index) Entries() []*texturegroup.Group {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.pruneLocked()
	return slices.Clone(idx.entries)
}

// RefreshRecord validates g and adds it to the index if it is not already
// listed. Invalid groups are discarded through the store and are not
// reported as errors; only store and generator failures are returned.
func (idx *Index) RefreshRecord(ctx context.Context, g *texturegroup.Group, opts RefreshOptions) (err error) {
	if g == nil {
		return errors.New("texindex: nil texture group")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	start := time.Now()
	defer func() {
		metrics.IndexRefreshTotal.WithLabelValues("record").Inc()
		metrics.IndexRefreshDuration.WithLabelValues("record").Observe(time.Since(start).Seconds())
	}()

	return idx.refreshRecordLocked(ctx, g, opts)
}

func (idx *Index) refreshRecordLocked(ctx context.Context, g *texturegroup.Group, opts RefreshOptions) error {
	progress := idx.store.Progress()
	defer progress.End()

	progress.Begin(progressTitle, "Validating texture group", 0.1)
	res := g.Validate()
	if !res.Valid {
		return idx.reject(ctx, g, res, "validate")
	}
	if !texturegroup.Alive(g) {
		return nil
	}
	if res.Changed {
		idx.store.MarkModified(g)
	}

	if slices.Contains(idx.entries, g) {
		if opts.RegenerateHelper {
			return idx.generateLocked(ctx, opts.Persist, opts.Rescan)
		}
		return nil
	}

	progress.Begin(progressTitle, "Loading textures", 0.4)
	res = g.LoadTexturesFromFolder(false)
	if !res.Valid {
		return idx.reject(ctx, g, res, "load")
	}
	if !texturegroup.Alive(g) {
		return nil
	}

	progress.Begin(progressTitle, "Adding texture group", 0.8)
	idx.store.MarkModified(g)
	idx.entries = append(idx.entries, g)
	idx.markModifiedLocked()
	metrics.IndexGroupsAdded.Inc()
	metrics.IndexEntries.Set(float64(len(idx.entries)))

	path, err := idx.store.ResolveID(ctx, g.ID())
	if err != nil {
		path = g.Path()
	}
	logging.Info("'%s > %s' Texture Group (%d textures) was added to the texture database",
		g.Category(), g.Name(), g.TextureCount())
	logging.Info("Group Path: %s", path)

	progress.Begin(progressTitle, "Finishing", 0.9)
	if opts.RegenerateHelper {
		return idx.generateLocked(ctx, opts.Persist, opts.Rescan)
	}
	return idx.persistLocked(ctx, opts.Persist, opts.Rescan)
}

// RefreshAll rebuilds the index from every texture group in the store and
// regenerates the helper once at the end.
func (idx *Index) RefreshAll(ctx context.Context, persist, rescan bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	start := time.Now()
	defer func() {
		metrics.IndexRefreshTotal.WithLabelValues("all").Inc()
		metrics.IndexRefreshDuration.WithLabelValues("all").Observe(time.Since(start).Seconds())
	}()

	idx.entries = nil

	ids, err := idx.store.FindAssetsByType(ctx, string(mediatypes.AssetTypeTextureGroup))
	if err != nil {
		return fmt.Errorf("listing texture groups: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, err := idx.resolve(ctx, id)
		if err != nil {
			logging.Warn("Skipping texture group %s: %v", id, err)
			continue
		}
		if err := idx.refreshRecordLocked(ctx, g, RefreshOptions{}); err != nil {
			return err
		}
	}

	idx.markModifiedLocked()
	metrics.IndexEntries.Set(float64(len(idx.entries)))
	logging.Info("Texture database refreshed: %d of %d texture groups indexed in %v",
		len(idx.entries), len(ids), time.Since(start))

	return idx.generateLocked(ctx, persist, rescan)
}

// Lookup returns the first entry whose category and name equal the given
// keys once whitespace and special characters are stripped from them. The
// comparison is case-sensitive.
func (idx *Index) Lookup(category, name string) (*texturegroup.Group, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.pruneLocked()

	c, n := texturegroup.CleanKey(category), texturegroup.CleanKey(name)
	for _, g := range idx.entries {
		if g.Category() == c && g.Name() == n {
			metrics.IndexLookupsTotal.WithLabelValues("hit").Inc()
			return g, true
		}
	}

	metrics.IndexLookupsTotal.WithLabelValues("miss").Inc()
	logging.Warn("Texture Group '%s' not found in the '%s' category!", name, category)
	return nil, false
}

// Rescan rescans the asset store without touching the entries.
func (idx *Index) Rescan(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	return idx.store.Refresh(ctx)
}

// Generate regenerates the helper file from the current entries.
func (idx *Index) Generate(ctx context.Context, persist, rescan bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	return idx.generateLocked(ctx, persist, rescan)
}

func (idx *Index) resolve(ctx context.Context, id string) (*texturegroup.Group, error) {
	path, err := idx.store.ResolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	return idx.store.Load(ctx, path)
}

// reject discards an invalid group. A failed discard is logged and the group
// is only dropped for this session, so one unwritable manifest or trash
// directory never stops a refresh.
func (idx *Index) reject(ctx context.Context, g *texturegroup.Group, res texturegroup.Result, stage string) error {
	metrics.IndexGroupsRejected.WithLabelValues(stage).Inc()
	logging.Debug("Texture group %s rejected at %s: %s", g.Path(), stage, res.Error())
	if err := idx.store.Discard(ctx, g, res); err != nil {
		metrics.IndexDiscardFailures.Inc()
		logging.Error("Failed to discard invalid texture group %s: %v", g.Path(), err)
		g.MarkDeleted()
	}
	return nil
}

func (idx *Index) generateLocked(ctx context.Context, persist, rescan bool) error {
	groups := slices.DeleteFunc(slices.Clone(idx.entries), func(g *texturegroup.Group) bool {
		return !texturegroup.Alive(g)
	})
	if err := idx.gen.Run(ctx, groups, persist, rescan); err != nil {
		return fmt.Errorf("generating helper: %w", err)
	}
	return nil
}

func (idx *Index) persistLocked(ctx context.Context, persist, rescan bool) error {
	if persist {
		if err := idx.store.Save(ctx); err != nil {
			return fmt.Errorf("saving asset store: %w", err)
		}
	}
	if rescan {
		if err := idx.store.Refresh(ctx); err != nil {
			return fmt.Errorf("rescanning asset store: %w", err)
		}
	}
	return nil
}

func (idx *Index) pruneLocked() {
	before := len(idx.entries)
	idx.entries = slices.DeleteFunc(idx.entries, func(g *texturegroup.Group) bool {
		return !texturegroup.Alive(g)
	})
	if pruned := before - len(idx.entries); pruned > 0 {
		metrics.IndexEntriesPruned.Add(float64(pruned))
		metrics.IndexEntries.Set(float64(len(idx.entries)))
		logging.Debug("Pruned %d deleted texture groups from the index", pruned)
	}
}

// markModifiedLocked hands the store a snapshot of the entry list to persist
// on the next Save.
func (idx *Index) markModifiedLocked() {
	ids := make([]string, 0, len(idx.entries))
	for _, g := range idx.entries {
		if texturegroup.Alive(g) {
			ids = append(ids, g.ID())
		}
	}
	idx.store.MarkModified(snapshot{name: idx.name, ids: ids})
}

type snapshot struct {
	name string
	ids  []string
}

func (s snapshot) IndexName() string  { return s.name }
func (s snapshot) EntryIDs() []string { return s.ids }
