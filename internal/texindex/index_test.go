package texindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texdb/internal/assetstore"
	"texdb/internal/logging"
	"texdb/internal/metrics"
	"texdb/internal/texturegroup"
)

type recordingProgress struct {
	begins []float64
	ends   int
}

func (p *recordingProgress) Begin(_, _ string, fraction float64) {
	p.begins = append(p.begins, fraction)
}

func (p *recordingProgress) End() { p.ends++ }

type fakeStore struct {
	order      []string
	paths      map[string]string
	groups     map[string]*texturegroup.Group
	modified   []any
	persisted  map[string][]string
	pending    map[string][]string
	discarded  []*texturegroup.Group
	saves      int
	refreshes  int
	findErr    error
	discardErr error
	progress   *recordingProgress
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		paths:     make(map[string]string),
		groups:    make(map[string]*texturegroup.Group),
		persisted: make(map[string][]string),
		pending:   make(map[string][]string),
		progress:  &recordingProgress{},
	}
}

func (s *fakeStore) FindAssetsByType(_ context.Context, _ string) ([]string, error) {
	return s.order, s.findErr
}

func (s *fakeStore) ResolveID(_ context.Context, id string) (string, error) {
	p, ok := s.paths[id]
	if !ok {
		return "", assetstore.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) Load(_ context.Context, path string) (*texturegroup.Group, error) {
	g, ok := s.groups[path]
	if !ok {
		return nil, assetstore.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) MarkModified(obj any) {
	s.modified = append(s.modified, obj)
	if l, ok := obj.(assetstore.EntryList); ok {
		s.pending[l.IndexName()] = l.EntryIDs()
	}
}

func (s *fakeStore) Discard(_ context.Context, g *texturegroup.Group, _ texturegroup.Result) error {
	s.discarded = append(s.discarded, g)
	if s.discardErr != nil {
		return s.discardErr
	}
	g.MarkDeleted()
	return nil
}

func (s *fakeStore) Save(context.Context) error {
	s.saves++
	for name, ids := range s.pending {
		s.persisted[name] = ids
	}
	clear(s.pending)
	return nil
}

func (s *fakeStore) Refresh(context.Context) error {
	s.refreshes++
	return nil
}

func (s *fakeStore) LoadIndex(_ context.Context, name string) ([]string, error) {
	return s.persisted[name], nil
}

func (s *fakeStore) Progress() Progress { return s.progress }

// add creates a group folder holding n textures and registers the group.
func (s *fakeStore) add(t *testing.T, id, category, name string, n int) *texturegroup.Group {
	t.Helper()
	dir := t.TempDir()
	for i := range n {
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("tex%d.png", i)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 2, 2))))
		require.NoError(t, f.Close())
	}

	path := filepath.Join(dir, name+".texgroup.yaml")
	g := texturegroup.New(id, path, texturegroup.Manifest{
		Version:  "1.0.0",
		GUID:     id,
		Category: category,
		Name:     name,
	}, nil)

	s.order = append(s.order, id)
	s.paths[id] = path
	s.groups[path] = g
	return g
}

type genCall struct {
	names   []string
	persist bool
	rescan  bool
}

type fakeGenerator struct {
	calls []genCall
	err   error
}

func (f *fakeGenerator) Run(_ context.Context, groups []*texturegroup.Group, persist, rescan bool) error {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Category() + "." + g.Name()
	}
	f.calls = append(f.calls, genCall{names: names, persist: persist, rescan: rescan})
	return f.err
}

func openIndex(t *testing.T, store *fakeStore, gen *fakeGenerator) *Index {
	t.Helper()
	idx, err := Open(context.Background(), store, gen, Options{})
	require.NoError(t, err)
	return idx
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})
	return &buf
}

func TestRefreshRecordAppendsOnce(t *testing.T) {
	logs := captureLogs(t)
	store := newFakeStore()
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	play := store.add(t, "play", "Icons", "Play", 2)

	require.NoError(t, idx.RefreshRecord(ctx, play, RefreshOptions{}))
	require.NoError(t, idx.RefreshRecord(ctx, play, RefreshOptions{}))

	assert.Equal(t, []*texturegroup.Group{play}, idx.Entries())
	assert.Equal(t, 2, play.TextureCount())
	assert.Contains(t, logs.String(), "'Icons > Play' Texture Group (2 textures) was added to the texture database")
	assert.Contains(t, logs.String(), "Group Path: "+store.paths["play"])
	assert.Contains(t, store.modified, any(play))
	assert.Equal(t, []string{"play"}, store.pending[DefaultName])

	assert.Equal(t, []float64{0.1, 0.4, 0.8, 0.9, 0.1}, store.progress.begins)
	assert.Equal(t, 2, store.progress.ends)

	assert.Empty(t, gen.calls)
	assert.Zero(t, store.saves)
	assert.Zero(t, store.refreshes)
}

func TestRefreshRecordDiscardsInvalidGroup(t *testing.T) {
	store := newFakeStore()
	idx := openIndex(t, store, &fakeGenerator{})
	ctx := context.Background()

	bad := store.add(t, "bad", "  ", "Play", 1)

	require.NoError(t, idx.RefreshRecord(ctx, bad, RefreshOptions{Persist: true}))
	assert.Zero(t, idx.Len())
	assert.Equal(t, []*texturegroup.Group{bad}, store.discarded)
	assert.True(t, bad.Deleted())
	assert.Zero(t, store.saves)
	assert.Equal(t, 1, store.progress.ends)
}

func TestRefreshRecordDiscardsGroupWithMissingFolder(t *testing.T) {
	store := newFakeStore()
	idx := openIndex(t, store, &fakeGenerator{})

	g := texturegroup.New("gone", filepath.Join(t.TempDir(), "missing", "gone.texgroup.yaml"),
		texturegroup.Manifest{Version: "1.0.0", Category: "Icons", Name: "Gone"}, nil)

	require.NoError(t, idx.RefreshRecord(context.Background(), g, RefreshOptions{}))
	assert.Zero(t, idx.Len())
	assert.True(t, g.Deleted())
}

func TestRefreshRecordPersistAndRescan(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	play := store.add(t, "play", "Icons", "Play", 1)
	require.NoError(t, idx.RefreshRecord(ctx, play, RefreshOptions{Persist: true, Rescan: true}))

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.refreshes)
	assert.Equal(t, []string{"play"}, store.persisted[DefaultName])
	assert.Empty(t, gen.calls)
}

func TestRefreshRecordRegenerateHelper(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	play := store.add(t, "play", "Icons", "Play", 1)
	opts := RefreshOptions{Persist: true, RegenerateHelper: true}

	require.NoError(t, idx.RefreshRecord(ctx, play, opts))
	// already indexed: only the helper is regenerated
	require.NoError(t, idx.RefreshRecord(ctx, play, opts))

	assert.Equal(t, 1, idx.Len())
	require.Len(t, gen.calls, 2)
	for _, c := range gen.calls {
		assert.Equal(t, genCall{names: []string{"Icons.Play"}, persist: true}, c)
	}
	// the generator owns persistence when it runs
	assert.Zero(t, store.saves)
}

func TestRefreshRecordCleansStoredKeys(t *testing.T) {
	store := newFakeStore()
	idx := openIndex(t, store, &fakeGenerator{})

	g := store.add(t, "g", "My Icons", "Play-Button", 0)
	require.NoError(t, idx.RefreshRecord(context.Background(), g, RefreshOptions{}))

	assert.Equal(t, "MyIcons", g.Category())
	assert.Equal(t, "PlayButton", g.Name())

	found, ok := idx.Lookup("My Icons", "Play Button")
	assert.True(t, ok)
	assert.Same(t, g, found)
}

func TestRefreshAll(t *testing.T) {
	logs := captureLogs(t)
	store := newFakeStore()
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	play := store.add(t, "play", "Icons", "Play", 1)
	stop := store.add(t, "stop", "Icons", "Stop", 1)

	require.NoError(t, idx.RefreshAll(ctx, true, false))

	assert.Equal(t, []*texturegroup.Group{play, stop}, idx.Entries())
	require.Len(t, gen.calls, 1)
	assert.Equal(t, genCall{names: []string{"Icons.Play", "Icons.Stop"}, persist: true}, gen.calls[0])

	got, ok := idx.Lookup("Icons", "Play")
	require.True(t, ok)
	assert.Same(t, play, got)

	got, ok = idx.Lookup("icons", "play")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Contains(t, logs.String(), "Texture Group 'play' not found in the 'icons' category!")
}

func TestRefreshAllRebuildsFromScratch(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	play := store.add(t, "play", "Icons", "Play", 1)
	store.add(t, "bad", "", "Broken", 1)
	store.order = append(store.order, "unresolvable")

	require.NoError(t, idx.RefreshAll(ctx, false, true))
	assert.Equal(t, []*texturegroup.Group{play}, idx.Entries())

	stop := store.add(t, "stop", "Icons", "Stop", 1)
	require.NoError(t, idx.RefreshAll(ctx, false, true))
	assert.Equal(t, []*texturegroup.Group{play, stop}, idx.Entries())

	assert.Equal(t, []string{"play", "stop"}, store.pending[DefaultName])
	require.Len(t, gen.calls, 2)
	assert.True(t, gen.calls[1].rescan)
	assert.False(t, gen.calls[1].persist)
}

func TestRefreshAllSurvivesDiscardFailure(t *testing.T) {
	logs := captureLogs(t)
	store := newFakeStore()
	store.discardErr = errors.New("trash not writable")
	gen := &fakeGenerator{}
	idx := openIndex(t, store, gen)
	ctx := context.Background()

	bad := store.add(t, "bad", "", "Broken", 1)
	play := store.add(t, "play", "Icons", "Play", 1)
	stop := store.add(t, "stop", "Icons", "Stop", 1)
	failures := testutil.ToFloat64(metrics.IndexDiscardFailures)

	require.NoError(t, idx.RefreshAll(ctx, true, false))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IndexDiscardFailures)-failures)

	assert.Equal(t, []*texturegroup.Group{play, stop}, idx.Entries())
	assert.Equal(t, []*texturegroup.Group{bad}, store.discarded)
	assert.True(t, bad.Deleted())
	require.Len(t, gen.calls, 1)
	assert.Equal(t, []string{"Icons.Play", "Icons.Stop"}, gen.calls[0].names)
	assert.Contains(t, logs.String(), "trash not writable")
}

func TestRefreshRecordSurvivesDiscardFailure(t *testing.T) {
	store := newFakeStore()
	store.discardErr = errors.New("read-only folder")
	idx := openIndex(t, store, &fakeGenerator{})

	bad := store.add(t, "bad", "  ", "Play", 1)

	require.NoError(t, idx.RefreshRecord(context.Background(), bad, RefreshOptions{Persist: true}))
	assert.Zero(t, idx.Len())
	assert.True(t, bad.Deleted())
}

func TestRefreshAllErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("store", func(t *testing.T) {
		store := newFakeStore()
		store.findErr = errors.New("catalog locked")
		idx := openIndex(t, store, &fakeGenerator{})
		err := idx.RefreshAll(ctx, true, false)
		assert.ErrorIs(t, err, store.findErr)
	})

	t.Run("generator", func(t *testing.T) {
		store := newFakeStore()
		gen := &fakeGenerator{err: errors.New("disk full")}
		idx := openIndex(t, store, gen)
		store.add(t, "play", "Icons", "Play", 1)
		err := idx.RefreshAll(ctx, true, false)
		assert.ErrorIs(t, err, gen.err)
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("canceled", func(t *testing.T) {
		store := newFakeStore()
		idx := openIndex(t, store, &fakeGenerator{})
		store.add(t, "play", "Icons", "Play", 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, idx.RefreshAll(cctx, true, false), context.Canceled)
	})
}

func TestLookupPrunesDeletedEntries(t *testing.T) {
	store := newFakeStore()
	idx := openIndex(t, store, &fakeGenerator{})
	ctx := context.Background()

	first := store.add(t, "first", "Icons", "Play", 1)
	second := store.add(t, "second", "Icons", "Play", 1)
	require.NoError(t, idx.RefreshAll(ctx, false, false))
	require.Equal(t, 2, idx.Len())

	// duplicate keys are allowed; the first entry wins
	got, ok := idx.Lookup("Icons", "Play")
	require.True(t, ok)
	assert.Same(t, first, got)

	first.MarkDeleted()
	assert.Equal(t, 2, idx.Len())

	got, ok = idx.Lookup("Icons", "Play")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, idx.Len())

	second.MarkDeleted()
	got, ok = idx.Lookup("Icons", "Play")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Zero(t, idx.Len())
}

func TestOpenRestoresPersistedEntries(t *testing.T) {
	store := newFakeStore()
	play := store.add(t, "play", "Icons", "Play", 1)
	store.persisted[DefaultName] = []string{"play", "removed", "play"}

	idx := openIndex(t, store, &fakeGenerator{})
	assert.Equal(t, "Editor Textures", idx.Name())
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []*texturegroup.Group{play}, idx.Entries())
	assert.Equal(t, 1, idx.Len())

	// a restored entry is already indexed
	require.NoError(t, idx.RefreshRecord(context.Background(), play, RefreshOptions{}))
	assert.Equal(t, 1, idx.Len())
}

func TestOpenValidatesArguments(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, nil, &fakeGenerator{}, Options{})
	assert.Error(t, err)
	_, err = Open(ctx, newFakeStore(), nil, Options{})
	assert.Error(t, err)

	idx, err := Open(ctx, newFakeStore(), &fakeGenerator{}, Options{Name: "Icons", Description: "UI icons"})
	require.NoError(t, err)
	assert.Equal(t, "Icons", idx.Name())
	assert.Equal(t, "UI icons", idx.Description())

	idx, err = Open(ctx, newFakeStore(), &fakeGenerator{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, idx.Name())
	assert.Equal(t, "Collection of Textures used in the Editor", idx.Description())
}

func TestClosedIndex(t *testing.T) {
	store := newFakeStore()
	idx := openIndex(t, store, &fakeGenerator{})
	ctx := context.Background()
	play := store.add(t, "play", "Icons", "Play", 1)

	require.NoError(t, idx.Close())
	assert.ErrorIs(t, idx.Close(), ErrClosed)
	assert.ErrorIs(t, idx.RefreshRecord(ctx, play, RefreshOptions{}), ErrClosed)
	assert.ErrorIs(t, idx.RefreshAll(ctx, true, false), ErrClosed)
	assert.ErrorIs(t, idx.Rescan(ctx), ErrClosed)
	assert.ErrorIs(t, idx.Generate(ctx, false, false), ErrClosed)
}

func TestRefreshRecordNil(t *testing.T) {
	idx := openIndex(t, newFakeStore(), &fakeGenerator{})
	assert.Error(t, idx.RefreshRecord(context.Background(), nil, RefreshOptions{}))
}
