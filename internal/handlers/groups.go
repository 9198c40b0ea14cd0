package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"texdb/internal/logging"
	"texdb/internal/mediatypes"
	"texdb/internal/texturegroup"
)

// GroupSummary is one entry of the group listing.
type GroupSummary struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Textures int    `json:"textures"`
}

// GroupList is the response of ListGroups.
type GroupList struct {
	Index  string         `json:"index"`
	Total  int            `json:"total"`
	Groups []GroupSummary `json:"groups"`
}

// ListGroups returns the live entries in index order. The optional
// category query parameter filters by exact category key.
func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	list := GroupList{Index: h.index.Name(), Groups: []GroupSummary{}}
	for _, g := range h.index.Entries() {
		if category != "" && g.Category() != category {
			continue
		}
		list.Groups = append(list.Groups, GroupSummary{
			ID:       g.ID(),
			Category: g.Category(),
			Name:     g.Name(),
			Textures: g.TextureCount(),
		})
	}
	list.Total = len(list.Groups)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, list)
}

// GetGroup returns the full record of one group.
func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, g.Info())
}

// GetPreview returns a PNG contact sheet of the group's textures.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	if h.previews == nil {
		writeJSONError(w, "previews are disabled", http.StatusNotImplemented)
		return
	}
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := h.previews.Get(r.Context(), g)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// GetTexture serves one texture file of a group, selected by texture name.
func (h *Handlers) GetTexture(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["texture"]
	var tex *texturegroup.Texture
	for _, t := range g.Textures() {
		if t.Name == name {
			tex = &t
			break
		}
	}
	if tex == nil {
		writeJSONError(w, "texture not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(tex.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "texture file is missing", http.StatusNotFound)
			return
		}
		logging.Error("Failed to open texture %s: %v", tex.Path, err)
		writeJSONError(w, "failed to open texture", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSONError(w, "failed to stat texture", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(strings.ToLower(filepath.Ext(tex.File))))
	http.ServeContent(w, r, tex.File, info.ModTime(), f)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*texturegroup.Group, bool) {
	vars := mux.Vars(r)
	g, ok := h.index.Lookup(vars["category"], vars["name"])
	if !ok {
		writeJSONError(w, "texture group not found", http.StatusNotFound)
		return nil, false
	}
	return g, true
}
