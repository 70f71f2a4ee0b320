package lang

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/manifest"
)

// ErrInvalidSymbolSpec is returned for symbol specs not of the form file|symbol.
var ErrInvalidSymbolSpec = errors.New("invalid symbol spec")

// SymbolSpec names one symbol of one file.
type SymbolSpec struct {
	FilePath string
	Symbol   string
}

// ParseSymbolSpec parses "path/to/file.py|symbol".
func ParseSymbolSpec(s string) (SymbolSpec, error) {
	file, symbol, ok := strings.Cut(s, "|")
	file = strings.TrimSpace(file)
	symbol = strings.TrimSpace(symbol)
	if !ok || file == "" || symbol == "" || strings.Contains(symbol, "|") {
		return SymbolSpec{}, fmt.Errorf("%w: %q (expected file|symbol)", ErrInvalidSymbolSpec, s)
	}
	return SymbolSpec{FilePath: file, Symbol: symbol}, nil
}

// GroupRequests merges specs into one extraction request per file, in file order.
// Duplicate symbols are dropped.
func GroupRequests(specs []SymbolSpec) []manifest.ExtractionRequest {
	byFile := make(map[string][]string)
	seen := make(map[SymbolSpec]struct{})

	for _, spec := range specs {
		if _, dup := seen[spec]; dup {
			continue
		}
		seen[spec] = struct{}{}
		byFile[spec.FilePath] = append(byFile[spec.FilePath], spec.Symbol)
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	requests := make([]manifest.ExtractionRequest, 0, len(files))
	for _, file := range files {
		requests = append(requests, manifest.ExtractionRequest{
			FilePath:    file,
			SymbolNames: byFile[file],
		})
	}
	return requests
}
