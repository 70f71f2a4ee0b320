package python

import (
	"context"
	"testing"

	"github.com/mvp-joe/depsplit/internal/lang"
	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extractor:
// - Extracting a symbol keeps its transitive internal dependencies and nothing else
// - Imports whose targets were pruned away are dropped or narrowed
// - Imports nothing references any more are dropped; used ones survive
// - Re-exports other extracted files rely on survive the unused-import pass
// - Every extracted file parses without error nodes
// - Removing every statement of a block leaves pass behind
// - The repair loop deletes error fragments until the file parses cleanly
// - Keep sets naming files absent from the sources fail
// - Packages re-exporting external names are extracted along with their external import
// - Deleting one of several semicolon-joined statements leaves valid, unindented code

func extract(t *testing.T, files map[string]string, requests ...manifest.ExtractionRequest) map[string]string {
	t.Helper()

	ctx := context.Background()
	sources := project(files)

	m, err := lang.GenerateManifest(ctx, Plugin{}, sources, lang.Options{Version: DefaultVersion})
	require.NoError(t, err)

	out, err := lang.ExtractSymbols(ctx, Plugin{}, sources, m, requests, lang.Options{Version: DefaultVersion})
	require.NoError(t, err)

	parser := treesitter.NewPythonParser()
	text := make(map[string]string, len(out))
	for path, src := range out {
		file, err := parser.Parse(path, src)
		require.NoError(t, err)
		assert.False(t, file.Root().HasError(), "%s has syntax errors:\n%s", path, src)
		assert.Zero(t, treesitter.CountErrors(file.Root()), path)
		file.Close()

		text[path] = string(src)
	}
	return text
}

func TestExtractor_KeepsOnlyClosure(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"a.py": `
def foo():
    return 1

def bar():
    return 2
`,
		"b.py": `
from a import foo

def use():
    return foo()
`,
		"c.py": "def unrelated():\n    pass\n",
	}, manifest.ExtractionRequest{FilePath: "b.py", SymbolNames: []string{"use"}})

	require.Len(t, out, 2)
	assert.Equal(t, "from a import foo\n\ndef use():\n    return foo()\n", out["b.py"])
	assert.Equal(t, "def foo():\n    return 1\n\n", out["a.py"])
	assert.NotContains(t, out, "c.py")
}

func TestExtractor_RemovesInvalidImportItems(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"a.py": "def foo():\n    return 1\n\ndef bar():\n    return 2\n",
		"b.py": `
from a import foo, bar

def use():
    return foo()

def other():
    return bar()
`,
	}, manifest.ExtractionRequest{FilePath: "b.py", SymbolNames: []string{"use"}})

	assert.Equal(t, "from a import foo\n\ndef use():\n    return foo()\n\n", out["b.py"])
	assert.NotContains(t, out["a.py"], "bar")
}

func TestExtractor_RemovesUnusedImports(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"a.py": "def foo(sep):\n    return sep\n",
		"b.py": `
import os
import json
from a import foo

def use():
    return foo(os.sep)

def dump():
    return json.dumps({})
`,
	}, manifest.ExtractionRequest{FilePath: "b.py", SymbolNames: []string{"use"}})

	assert.Equal(t, "import os\nfrom a import foo\n\ndef use():\n    return foo(os.sep)\n\n", out["b.py"])
}

func TestExtractor_KeepsNeededReExports(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"pkg/__init__.py": `
from .impl import Thing
from .impl import Other
`,
		"pkg/impl.py": `
class Thing:
    pass

class Other:
    pass
`,
		"app.py": `
from pkg import Thing

def build():
    return Thing()
`,
	}, manifest.ExtractionRequest{FilePath: "app.py", SymbolNames: []string{"build"}})

	require.Len(t, out, 3)
	assert.Equal(t, "from .impl import Thing\n", out["pkg/__init__.py"])
	assert.Contains(t, out["pkg/impl.py"], "class Thing")
	assert.NotContains(t, out["pkg/impl.py"], "Other")
}

func TestExtractor_SharedAssignmentKept(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"conf.py": "a = b = 1\nc = 2\n",
		"use.py":  "from conf import a\n\ndef f():\n    return a\n",
	}, manifest.ExtractionRequest{FilePath: "use.py", SymbolNames: []string{"f"}})

	assert.Equal(t, "a = b = 1\n", out["conf.py"])
}

func TestExtractor_ExternalReExport(t *testing.T) {
	t.Parallel()

	out := extract(t, map[string]string{
		"pkg/__init__.py": "from numpy import array\nVERSION = 1\n",
		"user.py": `
from pkg import array

def use():
    return array([1])
`,
	}, manifest.ExtractionRequest{FilePath: "user.py", SymbolNames: []string{"use"}})

	require.Len(t, out, 2)
	assert.Equal(t, "from pkg import array\n\ndef use():\n    return array([1])\n", out["user.py"])
	assert.Equal(t, "from numpy import array\n", out["pkg/__init__.py"])
}

func TestExtractor_SemicolonStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "leading statement removed",
			source: "x = 1; y = 2\n\ndef keep():\n    return y\n",
			want:   "y = 2\n\ndef keep():\n    return y\n",
		},
		{
			name:   "trailing statement removed",
			source: "y = 2; x = 1\n\ndef keep():\n    return y\n",
			want:   "y = 2\n\ndef keep():\n    return y\n",
		},
		{
			name:   "middle statement removed",
			source: "__all__ = [\"keep\"]; x = 1; y = 2\n\ndef keep():\n    return y\n",
			want:   "__all__ = [\"keep\"]; y = 2\n\ndef keep():\n    return y\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := extract(t, map[string]string{"a.py": tt.source},
				manifest.ExtractionRequest{FilePath: "a.py", SymbolNames: []string{"keep"}})
			assert.Equal(t, tt.want, out["a.py"])
		})
	}
}

func TestStatementSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		start, end uint
		want       string
	}{
		{"whole line", "x = 1\ny = 2\n", 0, 5, "y = 2\n"},
		{"followed by semicolon", "x = 1; y = 2\n", 0, 5, "y = 2\n"},
		{"preceded by semicolon", "y = 2; x = 1\n", 7, 12, "y = 2\n"},
		{"trailing semicolon", "x = 1;\ny = 2\n", 0, 5, "y = 2\n"},
		{"indented in block", "if a:\n    x = 1; y = 2\n", 10, 15, "if a:\n    y = 2\n"},
		{"stray separator", "; y = 2\n", 0, 1, "y = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := []byte(tt.src)
			start, end := statementSpan(src, tt.start, tt.end)
			assert.Equal(t, tt.want, string(applyEdits(src, []edit{{start: start, end: end}})))
		})
	}
}

func TestExtractor_MissingSource(t *testing.T) {
	t.Parallel()

	keep := manifest.KeepSet{}
	keep.Add("gone.py", "x")

	_, err := NewExtractor(DefaultVersion).Extract(context.Background(), project(map[string]string{"a.py": "x = 1\n"}), keep)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestExtractor_MissingManifestEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sources := project(map[string]string{"a.py": "x = 1\n"})

	m, err := lang.GenerateManifest(ctx, Plugin{}, sources, lang.Options{})
	require.NoError(t, err)

	_, err = lang.ExtractSymbols(ctx, Plugin{}, sources, m,
		[]manifest.ExtractionRequest{{FilePath: "a.py", SymbolNames: []string{"nope"}}}, lang.Options{})
	assert.ErrorIs(t, err, manifest.ErrMissingManifestEntry)
}

func TestExtractor_Repair(t *testing.T) {
	t.Parallel()

	x := NewExtractor(DefaultVersion)

	tests := []struct {
		name   string
		source string
	}{
		{"stray paren", "x = 1\n)\ny = 2\n"},
		{"dangling operator", "x = 1\ny = 2 +\n"},
		{"orphan else", "x = 1\nelse:\n    pass\n"},
		{"clean", "x = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fixed := x.repair("mod.py", []byte(tt.source))

			file, err := treesitter.NewPythonParser().Parse("mod.py", fixed)
			require.NoError(t, err)
			defer file.Close()

			assert.False(t, file.Root().HasError(), string(fixed))
			assert.LessOrEqual(t, len(fixed), len(tt.source))
		})
	}
}

func TestRewriteImports(t *testing.T) {
	t.Parallel()

	reject := importFilter{
		member: func(ImportStatement, ImportMember) bool { return false },
		item:   func(ImportStatement, ImportMember, ImportItem) bool { return false },
	}
	narrow := importFilter{
		member: func(_ ImportStatement, m ImportMember) bool { return m.Identifier == "y" },
		item:   func(_ ImportStatement, _ ImportMember, i ImportItem) bool { return i.Identifier == "b" },
	}

	tests := []struct {
		name   string
		source string
		filter importFilter
		want   string
	}{
		{
			name:   "emptied block gets pass",
			source: "def f():\n    import os\n    import sys\n\nx = 1\n",
			filter: reject,
			want:   "def f():\n    pass\n\nx = 1\n",
		},
		{
			name:   "module level lines removed",
			source: "import os\nfrom m import *\nx = 1\n",
			filter: reject,
			want:   "x = 1\n",
		},
		{
			name:   "partial statements narrowed",
			source: "from m import a, b as c, d\nimport x, y\n",
			filter: narrow,
			want:   "from m import b as c\nimport y\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := analyze(t, map[string]string{"mod.py": tt.source})
			file, _ := a.Files.Get("mod.py")
			stmts, err := a.Imports.GetImportStatements("mod.py")
			require.NoError(t, err)

			got := applyEdits(file.Source, rewriteImports(file, stmts, tt.filter))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestApplyEdits_MergesOverlaps(t *testing.T) {
	t.Parallel()

	src := []byte("0123456789")
	got := applyEdits(src, []edit{
		{start: 6, end: 8},
		{start: 1, end: 3},
		{start: 2, end: 4},
		{start: 8, end: 9, text: "X"},
	})
	assert.Equal(t, "045X9", string(got))
	assert.Equal(t, "0123456789", string(src))
}
