package python

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mvp-joe/depsplit/internal/lang"
	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/mvp-joe/depsplit/internal/treesitter"
)

// Analysis is one resolver pipeline over an immutable snapshot of sources.
// Each run of the extractor builds a fresh Analysis instead of mutating an old one.
type Analysis struct {
	Files        *treesitter.FileSet
	Exports      *ExportExtractor
	Imports      *ImportExtractor
	Modules      *ModuleResolver
	Items        *ItemResolver
	Usage        *UsageResolver
	Dependencies *DependencyResolver
}

// NewAnalysis parses sources and wires the resolvers over them. Files that
// fail to parse are logged and left out. The caller must Close the analysis.
func NewAnalysis(ctx context.Context, sources map[string][]byte, version string) (*Analysis, error) {
	files, err := treesitter.ParseFiles(ctx, treesitter.NewPythonParser(), sources)
	if err != nil {
		return nil, err
	}
	return newAnalysis(files, version), nil
}

func newAnalysis(files *treesitter.FileSet, version string) *Analysis {
	a := &Analysis{Files: files}
	a.Exports = NewExportExtractor(files)
	a.Imports = NewImportExtractor(files)
	a.Modules = NewModuleResolver(files.Paths(), version)
	a.Items = NewItemResolver(a.Exports, a.Imports, a.Modules)
	a.Usage = NewUsageResolver(a.Exports, a.Imports, a.Items)
	a.Dependencies = NewDependencyResolver(files, a.Exports, a.Imports, a.Modules, a.Items, a.Usage)
	return a
}

// Close releases the parsed files.
func (a *Analysis) Close() {
	a.Files.Close()
}

// Manifest resolves the forward dependencies of every file. A malformed
// import aborts the run; any other per-file failure is logged and the file skipped.
func (a *Analysis) Manifest(ctx context.Context, progress lang.ProgressReporter) (manifest.Manifest, error) {
	if progress == nil {
		progress = lang.NoOpProgressReporter{}
	}

	paths := a.Files.Paths()
	progress.OnAnalysisStart(len(paths))

	m := make(manifest.Manifest, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fm, err := a.Dependencies.GetFileDependencies(path)
		if errors.Is(err, ErrMalformedStructure) {
			return nil, fmt.Errorf("failed to analyze %s: %w", path, err)
		}
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			progress.OnFileAnalyzed(path)
			continue
		}

		m[path] = fm
		progress.OnFileAnalyzed(path)
	}
	return m, nil
}
