package texturegroup

import (
	"path/filepath"
	"slices"
	"sync"
)

// Texture is one image file belonging to a group.
type Texture struct {
	Name   string `yaml:"name" json:"name"`
	File   string `yaml:"file" json:"file"`
	Path   string `yaml:"-" json:"path"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Format string `yaml:"format" json:"format"`
	Size   int64  `yaml:"size" json:"size"`
	Hash   string `yaml:"hash" json:"hash"`
}

// Group is a named, categorized collection of textures backed by a manifest
// file. The asset store hands out one *Group per asset for a whole session,
// so pointer equality is asset identity.
type Group struct {
	mu          sync.RWMutex
	id          string
	path        string
	version     string
	category    string
	name        string
	description string
	textures    []Texture
	issues      []Issue
	deleted     bool
}

// Info is a point-in-time copy of a group's attributes.
type Info struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Version     string    `json:"version"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Textures    []Texture `json:"textures"`
}

// New builds a group for the manifest stored at path. Schema issues found
// while decoding are kept and reported by Validate.
func New(id, path string, m Manifest, issues []Issue) *Group {
	g := &Group{id: id, path: path}
	g.apply(m, issues)
	return g
}

func (g *Group) apply(m Manifest, issues []Issue) {
	g.version = m.Version
	g.category = m.Category
	g.name = m.Name
	g.description = m.Description
	g.issues = slices.Clone(issues)
	g.textures = make([]Texture, len(m.Textures))
	dir := filepath.Dir(g.path)
	for i, t := range m.Textures {
		t.Path = filepath.Join(dir, t.File)
		g.textures[i] = t
	}
}

// Reload replaces the group's attributes with a freshly decoded manifest,
// keeping its identity.
func (g *Group) Reload(m Manifest, issues []Issue) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apply(m, issues)
}

// Alive reports whether g refers to an asset that still exists.
func Alive(g *Group) bool {
	return g != nil && !g.Deleted()
}

// ID returns the asset GUID.
func (g *Group) ID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.id
}

// SetID assigns a new GUID.
func (g *Group) SetID(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

// Path returns the manifest path.
func (g *Group) Path() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.path
}

// SetPath records that the manifest moved.
func (g *Group) SetPath(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.path = path
}

// Dir returns the folder holding the manifest and its textures.
func (g *Group) Dir() string {
	return filepath.Dir(g.Path())
}

// Category returns the category key, cleaned once Validate has run.
func (g *Group) Category() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.category
}

// Name returns the group key within its category.
func (g *Group) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

// Version returns the manifest's semantic version.
func (g *Group) Version() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Textures returns a copy of the group's textures.
func (g *Group) Textures() []Texture {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.textures)
}

// TextureCount returns the number of loaded textures.
func (g *Group) TextureCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.textures)
}

// Deleted reports whether the backing asset was discarded or removed.
func (g *Group) Deleted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.deleted
}

// MarkDeleted flags the group as no longer backed by an asset.
func (g *Group) MarkDeleted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = true
}

// Manifest returns the manifest representation of the group, as written
// back to disk by the asset store.
func (g *Group) Manifest() Manifest {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Manifest{
		Version:     g.version,
		GUID:        g.id,
		Category:    g.category,
		Name:        g.name,
		Description: g.description,
		Textures:    slices.Clone(g.textures),
	}
}

// Info returns a copy of the group's attributes.
func (g *Group) Info() Info {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Info{
		ID:          g.id,
		Path:        g.path,
		Version:     g.version,
		Category:    g.category,
		Name:        g.name,
		Description: g.description,
		Textures:    slices.Clone(g.textures),
	}
}
