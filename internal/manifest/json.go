package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FileName is the manifest's file name inside the output directory.
const FileName = "manifest.json"

// MarshalJSON writes files in case-insensitive key order.
func (m Manifest) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, *FileManifest]()
	for _, path := range m.FilePaths() {
		om.Set(path, m[path])
	}
	return json.Marshal(om)
}

// MarshalJSON writes symbols in case-insensitive key order.
func (s SymbolMap) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, *SymbolManifest]()
	for _, name := range s.Names() {
		om.Set(name, s[name])
	}
	return json.Marshal(om)
}

// Save writes the manifest as indented JSON, creating parent directories.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest written by Save.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
