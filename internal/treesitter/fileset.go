package treesitter

import (
	"context"
	"log"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FileSet is a collection of parsed files keyed by path.
type FileSet struct {
	files map[string]*File
}

// NewFileSet creates an empty file set.
func NewFileSet() *FileSet {
	return &FileSet{files: make(map[string]*File)}
}

// ParseFiles parses every source concurrently. Files that fail to parse are
// logged and left out of the set; only context cancellation is returned as an error.
func ParseFiles(ctx context.Context, parser *Parser, sources map[string][]byte) (*FileSet, error) {
	set := NewFileSet()
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for path, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			file, err := parser.Parse(path, source)
			if err != nil {
				log.Printf("Warning: skipping %s: %v", path, err)
				return nil
			}

			mu.Lock()
			set.files[path] = file
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		set.Close()
		return nil, err
	}
	return set, nil
}

// Add stores a parsed file, closing any file previously stored under the same path.
func (s *FileSet) Add(file *File) {
	if old, ok := s.files[file.Path]; ok && old != file {
		old.Close()
	}
	s.files[file.Path] = file
}

// Get returns the parsed file for path.
func (s *FileSet) Get(path string) (*File, bool) {
	f, ok := s.files[path]
	return f, ok
}

// Paths returns the file paths in sorted order.
func (s *FileSet) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of files.
func (s *FileSet) Len() int {
	return len(s.files)
}

// Close releases every syntax tree in the set.
func (s *FileSet) Close() {
	for _, f := range s.files {
		f.Close()
	}
}
