package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadAll loads paths relative to rootDir into a snapshot keyed by path.
func ReadAll(rootDir string, paths []string) (map[string][]byte, error) {
	sources := make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		sources[p] = data
	}
	return sources, nil
}

// Load discovers and reads every matching file under rootDir, optionally
// honoring the root .gitignore.
func Load(rootDir string, include, exclude []string, gitignore bool) (map[string][]byte, error) {
	d, err := NewDiscovery(rootDir, include, exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern: %w", err)
	}
	if gitignore {
		if err := d.UseGitignore(); err != nil {
			return nil, fmt.Errorf("failed to load .gitignore: %w", err)
		}
	}
	paths, err := d.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	return ReadAll(rootDir, paths)
}

// WriteAll writes files under dir, creating parent directories as needed.
// Paths escaping dir are rejected.
func WriteAll(dir string, files map[string][]byte) error {
	for p, data := range files {
		rel := filepath.Clean(filepath.FromSlash(p))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("refusing to write outside %s: %s", dir, p)
		}

		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	return nil
}
