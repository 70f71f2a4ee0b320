package python

import (
	"context"
	"path"

	"github.com/mvp-joe/depsplit/internal/lang"
	"github.com/mvp-joe/depsplit/internal/manifest"
)

func init() {
	lang.Register(Plugin{})
}

// Plugin exposes the Python pipeline to the language registry.
type Plugin struct{}

// Name implements lang.Plugin.
func (Plugin) Name() string { return Language }

// Extensions implements lang.Plugin.
func (Plugin) Extensions() []string { return []string{".py"} }

// Analyze implements lang.Plugin.
func (Plugin) Analyze(ctx context.Context, sources map[string][]byte, opts lang.Options) (manifest.Manifest, error) {
	a, err := NewAnalysis(ctx, sources, opts.Version)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	return a.Manifest(ctx, opts.Progress)
}

// IsEntryPoint implements lang.Plugin. Package initializers run on import of
// the package and __main__ runs under python -m.
func (Plugin) IsEntryPoint(filePath string) bool {
	base := path.Base(filePath)
	return base == "__init__.py" || base == "__main__.py"
}

// Extract implements lang.Plugin.
func (Plugin) Extract(ctx context.Context, sources map[string][]byte, keep manifest.KeepSet, opts lang.Options) (map[string][]byte, error) {
	return NewExtractor(opts.Version).Extract(ctx, sources, keep)
}
