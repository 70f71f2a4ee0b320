package python

import (
	"testing"

	"github.com/mvp-joe/depsplit/internal/treesitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Test Plan for ImportExtractor:
// - Direct imports split comma-separated members and aliases
// - From-imports carry one member with items, aliases or the wildcard flag
// - Relative sources keep their leading dots
// - Parenthesized multi-line item lists are decomposed
// - Imports nested in functions are included, in file order
// - Unexpected name shapes fail with ErrMalformedStructure

func TestImportExtractor_Statements(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{"pkg/mod.py": `
import os, sys as system
import a.b.c
from . import sibling
from ..pkg.mod import x, y as z
from m import *
from m import (p,
    q)

def f():
    import json
    return json
`})

	stmts, err := a.Imports.GetImportStatements("pkg/mod.py")
	require.NoError(t, err)
	require.Len(t, stmts, 7)

	assert.Equal(t, ImportDirect, stmts[0].Kind)
	require.Len(t, stmts[0].Members, 2)
	assert.Equal(t, "os", stmts[0].Members[0].Identifier)
	assert.Equal(t, "os", stmts[0].Members[0].Name())
	assert.Equal(t, "sys", stmts[0].Members[1].Identifier)
	assert.Equal(t, "system", stmts[0].Members[1].Alias)
	assert.Equal(t, "system", stmts[0].Members[1].Name())

	require.Len(t, stmts[1].Members, 1)
	assert.Equal(t, "a.b.c", stmts[1].Members[0].Identifier)

	assert.Equal(t, ImportFromSource, stmts[2].Kind)
	assert.Equal(t, ".", stmts[2].Source)
	assert.True(t, stmts[2].IsRelative())
	require.Len(t, stmts[2].Members, 1)
	require.Len(t, stmts[2].Members[0].Items, 1)
	assert.Equal(t, "sibling", stmts[2].Members[0].Items[0].Name())

	assert.Equal(t, "..pkg.mod", stmts[3].Source)
	items := stmts[3].Members[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "x", items[0].Identifier)
	assert.Equal(t, "y", items[1].Identifier)
	assert.Equal(t, "z", items[1].Alias)
	assert.Equal(t, "z", items[1].Name())

	assert.Equal(t, "m", stmts[4].Source)
	assert.False(t, stmts[4].IsRelative())
	assert.True(t, stmts[4].Members[0].IsWildcard)
	assert.Empty(t, stmts[4].Members[0].Items)

	require.Len(t, stmts[5].Members[0].Items, 2)
	assert.Equal(t, "p", stmts[5].Members[0].Items[0].Identifier)
	assert.Equal(t, "q", stmts[5].Members[0].Items[1].Identifier)

	assert.Equal(t, ImportDirect, stmts[6].Kind)
	assert.Equal(t, "json", stmts[6].Members[0].Identifier)
}

func TestImportExtractor_NoImports(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{"mod.py": "x = 1\n"})

	stmts, err := a.Imports.GetImportStatements("mod.py")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestImportExtractor_MalformedName(t *testing.T) {
	t.Parallel()

	file, err := treesitter.NewPythonParser().Parse("mod.py", []byte("x = 1\n"))
	require.NoError(t, err)
	defer file.Close()

	var ident *sitter.Node
	treesitter.WalkTree(file.Root(), func(n *sitter.Node) bool {
		if ident == nil && n.Kind() == "identifier" {
			ident = n
			return false
		}
		return true
	})
	require.NotNil(t, ident)

	_, _, err = importName(file, ident)
	assert.ErrorIs(t, err, ErrMalformedStructure)
}
