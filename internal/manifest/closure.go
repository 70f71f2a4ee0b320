package manifest

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMissingManifestEntry is returned when an extraction names a file or
// symbol the manifest does not contain.
var ErrMissingManifestEntry = errors.New("missing manifest entry")

// ExtractionRequest asks for a set of symbols from one file.
type ExtractionRequest struct {
	FilePath    string   `json:"filePath"`
	SymbolNames []string `json:"symbolNames"`
}

// KeepSet maps a file path to the names of the symbols to keep in it.
// A file present with an empty set is kept for its imports only.
type KeepSet map[string]map[string]struct{}

// Add records symbol as kept in file. An empty symbol only registers the file.
func (k KeepSet) Add(file, symbol string) {
	syms, ok := k[file]
	if !ok {
		syms = make(map[string]struct{})
		k[file] = syms
	}
	if symbol != "" {
		syms[symbol] = struct{}{}
	}
}

// Has reports whether symbol is kept in file.
func (k KeepSet) Has(file, symbol string) bool {
	_, ok := k[file][symbol]
	return ok
}

// Requests converts the keep set back into extraction requests, sorted by file.
func (k KeepSet) Requests() []ExtractionRequest {
	files := make([]string, 0, len(k))
	for file := range k {
		files = append(files, file)
	}
	sort.Strings(files)

	requests := make([]ExtractionRequest, 0, len(files))
	for _, file := range files {
		names := make([]string, 0, len(k[file]))
		for name := range k[file] {
			names = append(names, name)
		}
		sort.Strings(names)
		requests = append(requests, ExtractionRequest{FilePath: file, SymbolNames: names})
	}
	return requests
}

// Closure computes every file and symbol reachable from the requested symbols
// through internal dependency edges.
func (m Manifest) Closure(requests []ExtractionRequest) (KeepSet, error) {
	keep := make(KeepSet)
	visited := make(map[string]struct{})

	var visit func(file, symbol string) error
	visit = func(file, symbol string) error {
		key := file + "::" + symbol
		if _, ok := visited[key]; ok {
			return nil
		}
		visited[key] = struct{}{}

		fm, ok := m[file]
		if !ok {
			return fmt.Errorf("%w: file %s", ErrMissingManifestEntry, file)
		}
		sym, ok := fm.Symbols[symbol]
		if !ok {
			return fmt.Errorf("%w: symbol %s in %s", ErrMissingManifestEntry, symbol, file)
		}
		keep.Add(file, symbol)

		for _, id := range sortedDependencyIDs(sym.Dependencies) {
			dep := sym.Dependencies[id]
			if dep.IsExternal || dep.IsNamespace {
				continue
			}
			if _, ok := m[dep.ID]; ok {
				keep.Add(dep.ID, "")
			}
			for _, name := range sortedNames(dep.Symbols) {
				if err := visit(dep.ID, name); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, req := range requests {
		if _, ok := m[req.FilePath]; !ok {
			return nil, fmt.Errorf("%w: file %s", ErrMissingManifestEntry, req.FilePath)
		}
		keep.Add(req.FilePath, "")
		for _, name := range req.SymbolNames {
			if err := visit(req.FilePath, name); err != nil {
				return nil, err
			}
		}
	}

	return keep, nil
}

func sortedDependencyIDs(deps map[string]*Dependency) []string {
	ids := make([]string, 0, len(deps))
	for id := range deps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedNames(names map[string]string) []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
