package assetstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"texdb/internal/database"
	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/metrics"
	"texdb/internal/texturegroup"
)

// DataDirName is the per-project directory holding the catalog and trash.
const DataDirName = ".texdb"

type scannedFile struct {
	path    string
	modTime time.Time
	kind    mediatypes.AssetType
}

// Refresh rescans the project directory, assigns GUIDs to new assets and
// replaces the catalog. Cached groups whose manifest changed on disk are
// reloaded in place; cached groups whose manifest vanished are marked
// deleted.
func (s *FileStore) Refresh(ctx context.Context) error {
	start := time.Now()
	metrics.StoreRefreshTotal.Inc()
	defer func() {
		metrics.StoreRefreshDuration.Observe(time.Since(start).Seconds())
	}()

	files, err := s.scan(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]string) // path -> guid from the previous catalog
	for _, t := range []mediatypes.AssetType{mediatypes.AssetTypeTextureGroup, mediatypes.AssetTypeTexture} {
		rows, err := s.db.AssetsByType(ctx, string(t))
		if err != nil {
			return fmt.Errorf("reading catalog: %w", err)
		}
		for _, r := range rows {
			known[r.Path] = r.GUID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assets := make([]database.Asset, 0, len(files))
	taken := make(map[string]bool, len(files))
	seenGroups := make(map[string]bool)
	counts := make(map[mediatypes.AssetType]int)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		guid := ""
		if f.kind == mediatypes.AssetTypeTextureGroup {
			guid = s.refreshManifest(f, known, taken)
			if guid == "" {
				continue
			}
			seenGroups[guid] = true
		} else {
			guid = pickGUID("", known[f.path], taken)
		}

		taken[guid] = true
		counts[f.kind]++
		assets = append(assets, database.Asset{
			GUID:    guid,
			Path:    f.path,
			Type:    string(f.kind),
			ModTime: f.modTime,
		})
	}

	for id, g := range s.groups {
		if seenGroups[id] {
			continue
		}
		logging.Info("Texture group %s no longer exists", g.Path())
		g.MarkDeleted()
		delete(s.groups, id)
		delete(s.modified, g)
		delete(s.modTimes, id)
	}

	if err := s.db.SyncAssets(ctx, assets); err != nil {
		return err
	}
	if err := s.db.SetLastRefresh(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record refresh time: %v", err)
	}

	for _, t := range []mediatypes.AssetType{mediatypes.AssetTypeTextureGroup, mediatypes.AssetTypeTexture} {
		metrics.StoreAssets.WithLabelValues(string(t)).Set(float64(counts[t]))
	}
	logging.Debug("Asset store refreshed: %d texture groups, %d textures in %v",
		counts[mediatypes.AssetTypeTextureGroup], counts[mediatypes.AssetTypeTexture], time.Since(start))
	return nil
}

// refreshManifest assigns the GUID of one manifest and keeps its cached group,
// if any, in step with the file. It returns "" for manifests that cannot be
// read at all.
func (s *FileStore) refreshManifest(f scannedFile, known map[string]string, taken map[string]bool) string {
	m, issues, err := texturegroup.ReadManifest(f.path)
	if err != nil {
		logging.Warn("Skipping unreadable texture group %s: %v", f.path, err)
		return ""
	}

	guid := pickGUID(m.GUID, known[f.path], taken)
	if m.GUID != "" && guid != m.GUID {
		logging.Warn("Texture group %s duplicates GUID %s, assigned %s", f.path, m.GUID, guid)
	}

	g, cached := s.groups[guid]
	switch {
	case !cached:
		if m.GUID == guid {
			s.modTimes[guid] = f.modTime
			return guid
		}
		// the GUID must be written back, so the group has to be loaded
		g = texturegroup.New(guid, f.path, m, issues)
		s.groups[guid] = g
		s.modified[g] = struct{}{}
	case g.Path() != f.path:
		logging.Info("Texture group %s moved to %s", g.Path(), f.path)
		g.SetPath(f.path)
		g.Reload(m, issues)
	case !s.modTimes[guid].Equal(f.modTime):
		if _, dirty := s.modified[g]; !dirty {
			logging.Debug("Reloading changed texture group %s", f.path)
			g.Reload(m, issues)
		}
	}
	if m.GUID != guid {
		s.modified[g] = struct{}{}
	}
	s.modTimes[guid] = f.modTime
	return guid
}

func pickGUID(declared, previous string, taken map[string]bool) string {
	if declared != "" && !taken[declared] {
		return declared
	}
	if previous != "" && !taken[previous] {
		return previous
	}
	return uuid.NewString()
}

// scan walks the project tree and returns every asset file in path order.
func (s *FileStore) scan(ctx context.Context) ([]scannedFile, error) {
	trash, _ := filepath.Abs(s.opts.TrashDir)
	var files []scannedFile

	err := filepath.WalkDir(s.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.opts.Root {
				return err
			}
			logging.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path == s.opts.Root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || path == trash {
				return filepath.SkipDir
			}
			return nil
		}

		kind := mediatypes.GetAssetType(d.Name())
		if kind == mediatypes.AssetTypeOther {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			logging.Warn("Skipping %s: %v", path, err)
			return nil
		}
		files = append(files, scannedFile{path: path, modTime: info.ModTime(), kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.opts.Root, err)
	}
	return files, nil
}
