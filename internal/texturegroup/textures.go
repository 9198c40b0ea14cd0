package texturegroup

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"slices"
	"strings"

	// Texture decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"texdb/internal/filesystem"
	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/metrics"
)

func dirOf(path string) string {
	return filepath.Dir(path)
}

// LoadTexturesFromFolder replaces the group's textures with the supported
// images found next to its manifest, sorted by name. With recursive set,
// sub-folders are included (hidden folders are skipped). Files that cannot
// be decoded are skipped with a warning. An unreadable group folder makes
// the result Invalid.
func (g *Group) LoadTexturesFromFolder(recursive bool) Result {
	dir := g.Dir()

	var textures []Texture
	if err := collectTextures(dir, dir, recursive, &textures); err != nil {
		return Invalid(Issue{Message: fmt.Sprintf("reading group folder: %v", err)})
	}

	slices.SortFunc(textures, func(a, b Texture) int {
		return strings.Compare(a.File, b.File)
	})

	g.mu.Lock()
	changed := !slices.Equal(g.textures, textures)
	g.textures = textures
	category, name := g.category, g.name
	g.mu.Unlock()

	if len(textures) == 0 {
		logging.Warn("Texture group '%s > %s' has no textures in %s", category, name, dir)
	}
	return Valid(changed)
}

func collectTextures(root, dir string, recursive bool, out *[]Texture) error {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if recursive && !strings.HasPrefix(name, ".") {
				if err := collectTextures(root, path, recursive, out); err != nil {
					logging.Warn("Skipping texture folder %s: %v", path, err)
				}
			}
			continue
		}

		if !mediatypes.IsTexture(name) {
			continue
		}

		tex, err := readTexture(root, path)
		format := mediatypes.FormatName(name)
		if err != nil {
			logging.Warn("Skipping texture %s: %v", path, err)
			metrics.TexturesLoaded.WithLabelValues(format, "error").Inc()
			continue
		}
		metrics.TexturesLoaded.WithLabelValues(format, "success").Inc()
		*out = append(*out, tex)
	}
	return nil
}

// readTexture reads dimensions and a content hash for one image file.
func readTexture(root, path string) (Texture, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Texture{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close texture %s: %v", path, err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return Texture{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Texture{}, fmt.Errorf("decoding image header: %w", err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	base := filepath.Base(path)
	sum := blake2b.Sum256(data)

	return Texture{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		File:   filepath.ToSlash(rel),
		Path:   path,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: mediatypes.FormatName(base),
		Size:   int64(len(data)),
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}
