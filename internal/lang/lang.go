package lang

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mvp-joe/depsplit/internal/manifest"
)

// ErrUnsupportedLanguage is returned when no plugin is registered for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ProgressReporter provides callbacks for reporting analysis progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnAnalysisStart is called once the files are parsed and resolution begins.
	OnAnalysisStart(totalFiles int)

	// OnFileAnalyzed is called after each file's dependencies are resolved.
	OnFileAnalyzed(filePath string)

	// OnAnalysisComplete is called when the manifest is built.
	OnAnalysisComplete(files int, duration time.Duration)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnAnalysisStart(totalFiles int)                       {}
func (NoOpProgressReporter) OnFileAnalyzed(filePath string)                       {}
func (NoOpProgressReporter) OnAnalysisComplete(files int, duration time.Duration) {}

// Options carries per-run settings to a plugin.
type Options struct {
	// Version selects the language version, e.g. the Python standard library table.
	Version string

	// Progress receives analysis callbacks. Nil means no reporting.
	Progress ProgressReporter
}

func (o Options) progress() ProgressReporter {
	if o.Progress == nil {
		return NoOpProgressReporter{}
	}
	return o.Progress
}

// Plugin is the resolver pipeline of one language.
type Plugin interface {
	// Name is the configuration name of the language.
	Name() string

	// Extensions lists the file extensions the plugin analyzes.
	Extensions() []string

	// Analyze builds the forward dependency manifest of sources.
	// Dependents are filled in by GenerateManifest.
	Analyze(ctx context.Context, sources map[string][]byte, opts Options) (manifest.Manifest, error)

	// Extract prunes sources down to the files and symbols in keep.
	Extract(ctx context.Context, sources map[string][]byte, keep manifest.KeepSet, opts Options) (map[string][]byte, error)

	// IsEntryPoint reports files the language loads without an import
	// naming them, so having no dependents does not make them unused.
	IsEntryPoint(filePath string) bool
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Plugin)
)

// Register makes a plugin available by name. It panics on duplicate names.
func Register(p Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[p.Name()]; dup {
		panic("lang: Register called twice for " + p.Name())
	}
	registry[p.Name()] = p
}

// Lookup returns the plugin registered under name.
func Lookup(name string) (Plugin, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return p, nil
}

// Names returns the registered language names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateManifest analyzes sources and inverts the forward edges into dependents.
func GenerateManifest(ctx context.Context, p Plugin, sources map[string][]byte, opts Options) (manifest.Manifest, error) {
	start := time.Now()
	progress := opts.progress()
	opts.Progress = progress

	m, err := p.Analyze(ctx, sources, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s sources: %w", p.Name(), err)
	}
	m.GenerateDependents()

	progress.OnAnalysisComplete(len(m), time.Since(start))
	return m, nil
}

// ExtractSymbols computes the closure of requests over m and lets the plugin
// prune sources down to it.
func ExtractSymbols(ctx context.Context, p Plugin, sources map[string][]byte, m manifest.Manifest,
	requests []manifest.ExtractionRequest, opts Options) (map[string][]byte, error) {
	keep, err := m.Closure(requests)
	if err != nil {
		return nil, err
	}
	out, err := p.Extract(ctx, sources, keep, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s symbols: %w", p.Name(), err)
	}
	return out, nil
}
