package preview

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"texdb/internal/logging"
	"texdb/internal/texturegroup"
)

// Cache keeps rendered contact sheets on disk, keyed by the group's texture
// hashes and the layout.
type Cache struct {
	dir  string
	opts Options
}

// NewCache returns a cache storing sheets in dir.
func NewCache(dir string, opts Options) *Cache {
	return &Cache{dir: dir, opts: opts.normalized()}
}

func (c *Cache) key(g *texturegroup.Group) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d/%d/%d/%v\n", c.opts.Cell, c.opts.Columns, c.opts.Padding, c.opts.Background)
	for _, t := range g.Textures() {
		fmt.Fprintf(h, "%s:%s\n", t.File, t.Hash)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the PNG-encoded contact sheet of g, rendering and storing it
// on a miss.
func (c *Cache) Get(ctx context.Context, g *texturegroup.Group) ([]byte, error) {
	path := filepath.Join(c.dir, c.key(g)+".png")

	if data, err := os.ReadFile(path); err == nil {
		logging.Debug("Preview cache hit: %s", path)
		return data, nil
	}

	sheet, err := ContactSheet(ctx, g, c.opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, sheet); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		logging.Warn("Failed to create preview cache %s: %v", c.dir, err)
	} else if err := writeAtomic(path, buf.Bytes()); err != nil {
		logging.Warn("Failed to cache preview %s: %v", path, err)
	} else {
		logging.Debug("Preview cached: %s", path)
	}
	return buf.Bytes(), nil
}

// writeAtomic replaces path with data through a temp file in the same
// directory, so concurrent readers see either no file or a complete one.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheet-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
