package assetstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"texdb/internal/database"
	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/metrics"
	"texdb/internal/texturegroup"
)

// ErrNotFound is returned for IDs and paths the store does not know.
var ErrNotFound = errors.New("asset not found")

// EntryList is an index snapshot the store can persist on Save.
type EntryList interface {
	IndexName() string
	EntryIDs() []string
}

// Options configures a FileStore.
type Options struct {
	// Root is the project directory scanned for assets.
	Root string
	// DatabasePath is the SQLite catalog file.
	DatabasePath string
	// TrashDir receives the manifests of discarded groups.
	TrashDir string
	// TrashInvalid moves invalid manifests into TrashDir when they are discarded.
	TrashInvalid bool
	// Progress reports long-running index work. Defaults to NopProgress.
	Progress Progress
}

// FileStore is an asset store over a project directory, with GUIDs and index
// entry lists kept in a SQLite catalog.
type FileStore struct {
	opts Options
	db   *database.Database

	mu            sync.Mutex
	groups        map[string]*texturegroup.Group // by GUID
	modified      map[*texturegroup.Group]struct{}
	modifiedLists map[string]EntryList // by index name
	modTimes      map[string]time.Time // manifest mtimes seen by the last Refresh, by GUID
}

// Open opens the catalog and performs an initial Refresh.
func Open(ctx context.Context, opts Options) (*FileStore, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	opts.Root = root
	if opts.Progress == nil {
		opts.Progress = NopProgress{}
	}

	if err := os.MkdirAll(filepath.Dir(opts.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := database.New(ctx, opts.DatabasePath)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		opts:          opts,
		db:            db,
		groups:        make(map[string]*texturegroup.Group),
		modified:      make(map[*texturegroup.Group]struct{}),
		modifiedLists: make(map[string]EntryList),
		modTimes:      make(map[string]time.Time),
	}

	if err := s.Refresh(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after refresh failure: %v", closeErr)
		}
		return nil, err
	}
	return s, nil
}

// Close releases the catalog. Pending modifications are not saved.
func (s *FileStore) Close() error {
	s.mu.Lock()
	pending := len(s.modified) + len(s.modifiedLists)
	s.mu.Unlock()
	if pending > 0 {
		logging.Warn("Closing asset store with %d unsaved modification(s)", pending)
	}
	return s.db.Close()
}

// Progress returns the reporter used for long-running work.
func (s *FileStore) Progress() Progress {
	return s.opts.Progress
}

// Root returns the absolute project directory.
func (s *FileStore) Root() string {
	return s.opts.Root
}

// FindAssetsByType returns the GUIDs of every asset of the given type,
// ordered by path.
func (s *FileStore) FindAssetsByType(ctx context.Context, typeName string) ([]string, error) {
	assets, err := s.db.AssetsByType(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("finding %s assets: %w", typeName, err)
	}
	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = a.GUID
	}
	return ids, nil
}

// ResolveID returns the path of the asset with the given GUID.
func (s *FileStore) ResolveID(ctx context.Context, id string) (string, error) {
	a, err := s.db.GetAssetByGUID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	return a.Path, nil
}

// Load returns the texture group stored at path. Repeated loads of the same
// asset return the same *Group.
func (s *FileStore) Load(ctx context.Context, path string) (*texturegroup.Group, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	a, err := s.db.GetAssetByPath(ctx, abs)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if a.Type != string(mediatypes.AssetTypeTextureGroup) {
		return nil, fmt.Errorf("%s is a %s asset, not a texture group", path, a.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(a.GUID, a.Path)
}

func (s *FileStore) loadLocked(guid, path string) (*texturegroup.Group, error) {
	if g, ok := s.groups[guid]; ok {
		return g, nil
	}

	m, issues, err := texturegroup.ReadManifest(path)
	if err != nil {
		return nil, err
	}

	g := texturegroup.New(guid, path, m, issues)
	s.groups[guid] = g
	if m.GUID != guid {
		// first load of a manifest without (or with a clashing) guid
		s.modified[g] = struct{}{}
	}
	return g, nil
}

// LoadIndex returns the persisted entry GUIDs of the named index.
func (s *FileStore) LoadIndex(ctx context.Context, name string) ([]string, error) {
	ids, err := s.db.IndexEntries(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading index %q: %w", name, err)
	}
	return ids, nil
}

// MarkModified records that obj must be written on the next Save. obj is
// either a *texturegroup.Group or an EntryList; anything else is ignored.
func (s *FileStore) MarkModified(obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := obj.(type) {
	case *texturegroup.Group:
		if v != nil {
			s.modified[v] = struct{}{}
		}
	case EntryList:
		s.modifiedLists[v.IndexName()] = v
	default:
		logging.Debug("MarkModified: ignoring %T", obj)
	}
}

// Save writes every modified group manifest and index entry list.
func (s *FileStore) Save(ctx context.Context) error {
	s.mu.Lock()
	groups := make([]*texturegroup.Group, 0, len(s.modified))
	for g := range s.modified {
		groups = append(groups, g)
	}
	lists := make([]EntryList, 0, len(s.modifiedLists))
	for _, l := range s.modifiedLists {
		lists = append(lists, l)
	}
	s.modified = make(map[*texturegroup.Group]struct{})
	s.modifiedLists = make(map[string]EntryList)
	s.mu.Unlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].Path() < groups[j].Path() })

	var errs []error
	for _, g := range groups {
		if !texturegroup.Alive(g) {
			continue
		}
		if err := texturegroup.WriteManifest(g.Path(), g.Manifest()); err != nil {
			metrics.StoreSavesTotal.WithLabelValues("group", "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.StoreSavesTotal.WithLabelValues("group", "success").Inc()
		logging.Debug("Saved texture group %s", g.Path())
	}

	for _, l := range lists {
		if err := s.db.SaveIndexEntries(ctx, l.IndexName(), l.EntryIDs()); err != nil {
			metrics.StoreSavesTotal.WithLabelValues("index", "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.StoreSavesTotal.WithLabelValues("index", "success").Inc()
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("saving assets: %w", err)
	}
	return nil
}

// Discard removes an invalid group from the project: its manifest is moved
// to the trash (when enabled), its catalog row dropped and the group marked
// deleted.
func (s *FileStore) Discard(ctx context.Context, g *texturegroup.Group, res texturegroup.Result) error {
	if !texturegroup.Alive(g) {
		return nil
	}

	id, path := g.ID(), g.Path()
	logging.Warn("Discarding invalid texture group %s: %s", path, res.Error())

	s.mu.Lock()
	delete(s.groups, id)
	delete(s.modified, g)
	delete(s.modTimes, id)
	s.mu.Unlock()
	g.MarkDeleted()
	metrics.StoreDiscardsTotal.Inc()

	if !s.opts.TrashInvalid {
		return nil
	}

	if err := os.MkdirAll(s.opts.TrashDir, 0o755); err != nil {
		return fmt.Errorf("creating trash directory: %w", err)
	}
	dest := filepath.Join(s.opts.TrashDir,
		fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405"), filepath.Base(path)))
	if err := os.Rename(path, dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("moving %s to trash: %w", path, err)
	}
	if err := s.db.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("removing %s from catalog: %w", path, err)
	}
	logging.Info("Moved invalid texture group to %s", dest)
	return nil
}

// Stats summarizes the catalog.
type Stats struct {
	Root           string         `json:"root"`
	Assets         map[string]int `json:"assets"`
	LastRefresh    time.Time      `json:"lastRefresh"`
	LastGeneration time.Time      `json:"lastGeneration"`
	Pending        int            `json:"pendingModifications"`
}

// Stats returns catalog counts and the last rescan and generation times.
func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.db.CountByType(ctx)
	if err != nil {
		return Stats{}, err
	}
	last, err := s.db.GetLastRefresh(ctx)
	if err != nil {
		return Stats{}, err
	}
	generated, err := s.db.GetLastGeneration(ctx)
	if err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	pending := len(s.modified) + len(s.modifiedLists)
	s.mu.Unlock()

	return Stats{
		Root:           s.opts.Root,
		Assets:         counts,
		LastRefresh:    last,
		LastGeneration: generated,
		Pending:        pending,
	}, nil
}

// RecordGeneration stores the time the helper file was last written.
func (s *FileStore) RecordGeneration(ctx context.Context, t time.Time) error {
	return s.db.SetLastGeneration(ctx, t)
}
