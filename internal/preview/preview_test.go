package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texdb/internal/texturegroup"
)

var red = color.NRGBA{R: 255, A: 255}

func makeGroup(t *testing.T, n, w, h int) (*texturegroup.Group, string) {
	t.Helper()
	dir := t.TempDir()
	for i := range n {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				img.Set(x, y, red)
			}
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("t%d.png", i)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	g := texturegroup.New("id", filepath.Join(dir, "g.texgroup.yaml"),
		texturegroup.Manifest{Version: "1.0.0", Category: "Icons", Name: "Play"}, nil)
	require.True(t, g.LoadTexturesFromFolder(false).Valid)
	return g, dir
}

func TestContactSheetLayout(t *testing.T) {
	g, _ := makeGroup(t, 3, 10, 20)

	sheet, err := ContactSheet(context.Background(), g, Options{Cell: 16, Columns: 2, Padding: 2, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 38, sheet.Bounds().Dx())
	assert.Equal(t, 38, sheet.Bounds().Dy())

	// cell centers are filled, padding and the unused fourth cell are not
	assert.Equal(t, red, sheet.NRGBAAt(2+8, 2+8))
	assert.Equal(t, red, sheet.NRGBAAt(20+8, 2+8))
	assert.Equal(t, red, sheet.NRGBAAt(2+8, 20+8))
	assert.Equal(t, color.NRGBA{}, sheet.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, sheet.NRGBAAt(20+8, 20+8))
}

func TestContactSheetSkipsUnreadableTexture(t *testing.T) {
	g, dir := makeGroup(t, 2, 8, 8)
	require.NoError(t, os.Remove(filepath.Join(dir, "t0.png")))

	sheet, err := ContactSheet(context.Background(), g, Options{Cell: 8, Columns: 2, Padding: 0})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{}, sheet.NRGBAAt(4, 4))
	assert.Equal(t, red, sheet.NRGBAAt(12, 4))
}

func TestContactSheetErrors(t *testing.T) {
	empty := texturegroup.New("id", filepath.Join(t.TempDir(), "g.texgroup.yaml"), texturegroup.Manifest{}, nil)
	_, err := ContactSheet(context.Background(), empty, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoTextures)

	g, _ := makeGroup(t, 2, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ContactSheet(ctx, g, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConstrainedDownscales(t *testing.T) {
	g, _ := makeGroup(t, 1, 40, 20)
	img, err := loadConstrained(g.Textures()[0].Path, 10, 1000)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), img.Bounds())

	img, err = loadConstrained(g.Textures()[0].Path, 100, 50)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx()*img.Bounds().Dy(), 50)
}

func TestEncodeAndSave(t *testing.T) {
	g, _ := makeGroup(t, 1, 4, 4)
	sheet, err := ContactSheet(context.Background(), g, Options{Cell: 4, Columns: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sheet))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, sheet.Bounds(), decoded.Bounds())

	out := filepath.Join(t.TempDir(), "sheet.png")
	require.NoError(t, Save(out, sheet))
	assert.FileExists(t, out)
}

func TestCache(t *testing.T) {
	g, _ := makeGroup(t, 2, 4, 4)
	dir := filepath.Join(t.TempDir(), "previews")
	c := NewCache(dir, Options{Cell: 4, Columns: 2})

	first, err := c.Get(context.Background(), g)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	second, err := c.Get(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := NewCache(dir, Options{Cell: 8, Columns: 2})
	_, err = other.Get(context.Background(), g)
	require.NoError(t, err)
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCacheConcurrentGets(t *testing.T) {
	g, _ := makeGroup(t, 3, 4, 4)
	dir := filepath.Join(t.TempDir(), "previews")
	c := NewCache(dir, Options{Cell: 4, Columns: 2})

	const readers = 8
	results := make([][]byte, readers)
	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Get(context.Background(), g)
			assert.NoError(t, err)
			results[i] = data
		}()
	}
	wg.Wait()

	for _, data := range results {
		_, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, results[0], data)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))

	cached, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, results[0], cached)
}

func TestWriteAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.png")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, writeAtomic(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNormalizedDefaults(t *testing.T) {
	t.Setenv("TEXDB_WORKERS", "3")
	opts := Options{Padding: -1}.normalized()
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 128, opts.Cell)
	assert.Equal(t, 4, opts.Columns)
	assert.Equal(t, 0, opts.Padding)
	assert.NotNil(t, opts.Background)

	t.Setenv("TEXDB_WORKERS", "64")
	assert.Equal(t, maxDecoders, Options{}.normalized().Workers)
}
