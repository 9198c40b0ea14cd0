package mediatypes

import (
	"path/filepath"
	"strings"
)

// AssetType names a kind of asset the store can enumerate.
type AssetType string

const (
	// AssetTypeTextureGroup is a texture group manifest.
	AssetTypeTextureGroup AssetType = "TextureGroup"
	// AssetTypeTexture is a supported image file.
	AssetTypeTexture AssetType = "Texture"
	// AssetTypeOther is anything the store does not track.
	AssetTypeOther AssetType = "Other"
)

// ManifestSuffix is the file name suffix of texture group manifests.
const ManifestSuffix = ".texgroup.yaml"

// TextureExtensions maps file extensions to whether they are decodable texture formats.
var TextureExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// MimeTypes maps texture extensions to their MIME types.
var MimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// IsManifest reports whether name is a texture group manifest file name.
func IsManifest(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ManifestSuffix)
}

// IsTexture reports whether name has a supported texture extension.
func IsTexture(name string) bool {
	return TextureExtensions[strings.ToLower(filepath.Ext(name))]
}

// GetAssetType returns the AssetType for a file name.
func GetAssetType(name string) AssetType {
	switch {
	case IsManifest(name):
		return AssetTypeTextureGroup
	case IsTexture(name):
		return AssetTypeTexture
	default:
		return AssetTypeOther
	}
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".png").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// FormatName returns the short format name for a texture file ("png", "jpeg", ...).
func FormatName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg":
		return "jpeg"
	case ".tif":
		return "tiff"
	}
	return strings.TrimPrefix(ext, ".")
}
