package texturegroup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"texdb/internal/filesystem"
)

// Manifest is the on-disk form of a texture group (*.texgroup.yaml).
type Manifest struct {
	Version     string    `yaml:"version"`
	GUID        string    `yaml:"guid,omitempty"`
	Category    string    `yaml:"category"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Textures    []Texture `yaml:"textures,omitempty"`
}

// DecodeManifest checks data against the manifest schema and decodes it.
// Schema violations are returned as issues; the error is only for YAML that
// cannot be decoded at all.
func DecodeManifest(data []byte) (Manifest, []Issue, error) {
	var m Manifest

	issues, err := validateSchema(data)
	if err != nil {
		return m, nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return m, nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, issues, nil
}

// ReadManifest reads and decodes the manifest at path.
func ReadManifest(path string) (Manifest, []Issue, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Manifest{}, nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, issues, err := DecodeManifest(data)
	if err != nil {
		return m, nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, issues, nil
}

// EncodeManifest renders m as YAML.
func EncodeManifest(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteManifest writes m to path through a temporary file in the same
// directory so readers never see a partial manifest. An identical file is
// left untouched.
func WriteManifest(path string, m Manifest) error {
	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".texgroup-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}
