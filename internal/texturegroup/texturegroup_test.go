package texturegroup

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playManifest = `version: 1.0.0
category: Icons
name: Play
description: play button states
`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeGroup(t *testing.T, manifest string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "play.texgroup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return dir, path
}

func loadGroup(t *testing.T, path string) *Group {
	t.Helper()
	m, issues, err := ReadManifest(path)
	require.NoError(t, err)
	return New("guid-1", path, m, issues)
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Icons", "Icons"},
		{"  Icons ", "Icons"},
		{"Play Button", "PlayButton"},
		{"play-button_2", "playbutton2"},
		{"Ícones!", "Ícones"},
		{"\t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanKey(tt.in))
		})
	}
}

func TestDecodeManifest(t *testing.T) {
	m, issues, err := DecodeManifest([]byte(playManifest))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "Icons", m.Category)
	assert.Equal(t, "Play", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
}

func TestDecodeManifestSchemaIssues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "version: 1.0.0\ncategory: Icons\n"},
		{"numeric version", "version: 1\ncategory: Icons\nname: Play\n"},
		{"unknown field", playManifest + "color: red\n"},
		{"empty document", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, issues, err := DecodeManifest([]byte(tt.yaml))
			require.NoError(t, err)
			assert.NotEmpty(t, issues)
		})
	}
}

func TestDecodeManifestBrokenYAML(t *testing.T) {
	_, _, err := DecodeManifest([]byte("category: [unclosed"))
	assert.Error(t, err)
}

func TestManifestRoundTripKeepsTextures(t *testing.T) {
	dir, path := writeGroup(t, playManifest)
	writePNG(t, filepath.Join(dir, "play_idle.png"), 8, 4)

	g := loadGroup(t, path)
	require.True(t, g.LoadTexturesFromFolder(false).Valid)
	require.NoError(t, WriteManifest(path, g.Manifest()))

	reloaded := loadGroup(t, path)
	require.Equal(t, 1, reloaded.TextureCount())
	tex := reloaded.Textures()[0]
	assert.Equal(t, "play_idle", tex.Name)
	assert.Equal(t, filepath.Join(dir, "play_idle.png"), tex.Path)
	assert.Equal(t, 8, tex.Width)
	assert.Equal(t, "guid-1", reloaded.Manifest().GUID)
}

func TestValidate(t *testing.T) {
	t.Run("valid group", func(t *testing.T) {
		_, path := writeGroup(t, playManifest)
		res := loadGroup(t, path).Validate()
		assert.True(t, res.Valid, res.Error())
		assert.False(t, res.Changed)
	})

	t.Run("keys are cleaned in place", func(t *testing.T) {
		_, path := writeGroup(t, "version: 1.2.0\ncategory: \"My Icons\"\nname: \"Play!\"\n")
		g := loadGroup(t, path)
		res := g.Validate()
		require.True(t, res.Valid, res.Error())
		assert.True(t, res.Changed)
		assert.Equal(t, "MyIcons", g.Category())
		assert.Equal(t, "Play", g.Name())
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, path := writeGroup(t, "version: 2.0.0\ncategory: Icons\nname: Play\n")
		res := loadGroup(t, path).Validate()
		assert.False(t, res.Valid)
		assert.Contains(t, res.Error(), "not supported")
	})

	t.Run("key made only of symbols", func(t *testing.T) {
		_, path := writeGroup(t, "version: 1.0.0\ncategory: Icons\nname: \"!!\"\n")
		res := loadGroup(t, path).Validate()
		assert.False(t, res.Valid)
		assert.Contains(t, res.Error(), "name is empty")
	})

	t.Run("schema issues fail validation", func(t *testing.T) {
		_, path := writeGroup(t, "version: 1.0.0\ncategory: Icons\n")
		assert.False(t, loadGroup(t, path).Validate().Valid)
	})

	t.Run("missing folder", func(t *testing.T) {
		m, _, err := DecodeManifest([]byte(playManifest))
		require.NoError(t, err)
		g := New("guid", filepath.Join(t.TempDir(), "gone", "play.texgroup.yaml"), m, nil)
		assert.False(t, g.Validate().Valid)
	})
}

func TestLoadTexturesFromFolder(t *testing.T) {
	dir, path := writeGroup(t, playManifest)
	writePNG(t, filepath.Join(dir, "b.png"), 16, 16)
	writePNG(t, filepath.Join(dir, "a.png"), 32, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writePNG(t, filepath.Join(dir, "sub", "c.png"), 4, 4)

	g := loadGroup(t, path)

	res := g.LoadTexturesFromFolder(false)
	require.True(t, res.Valid)
	assert.True(t, res.Changed)

	textures := g.Textures()
	require.Len(t, textures, 2)
	assert.Equal(t, "a", textures[0].Name)
	assert.Equal(t, 32, textures[0].Width)
	assert.Equal(t, 8, textures[0].Height)
	assert.Equal(t, "png", textures[0].Format)
	assert.Len(t, textures[0].Hash, 64)
	assert.Equal(t, "b", textures[1].Name)

	again := g.LoadTexturesFromFolder(false)
	assert.False(t, again.Changed, "reloading unchanged files should not report a change")

	require.True(t, g.LoadTexturesFromFolder(true).Valid)
	assert.Equal(t, 3, g.TextureCount())
	assert.Equal(t, "sub/c.png", g.Textures()[2].File)
}

func TestLoadTexturesFromMissingFolder(t *testing.T) {
	m, _, err := DecodeManifest([]byte(playManifest))
	require.NoError(t, err)
	g := New("guid", filepath.Join(t.TempDir(), "gone", "play.texgroup.yaml"), m, nil)

	res := g.LoadTexturesFromFolder(false)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Issues)
}

func TestGroupDeletion(t *testing.T) {
	var nilGroup *Group
	assert.False(t, Alive(nilGroup))

	g := New("id", "/p/a.texgroup.yaml", Manifest{Category: "Icons", Name: "Play"}, nil)
	assert.True(t, Alive(g))
	g.MarkDeleted()
	assert.False(t, Alive(g))
}
