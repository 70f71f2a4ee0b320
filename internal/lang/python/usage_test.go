package python

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for UsageResolver:
// - Names referenced outside import statements count as used
// - The import statement itself never counts as a use
// - Definition names, parameters and keyword argument names are not references
// - Only the object half of obj.attr is an identifier reference; the dotted text matches as a whole
// - Symbol scopes only see references inside the symbol's spans
// - External module imports record the attributes accessed on them
// - Module imports attribute obj.symbol references to the module's symbols and submodules

func TestUsageResolver_IsNameUsed(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{"mod.py": `
import os
import sys

def foo(bar, *, baz=1):
    return os.getcwd()

call(key=1)
obj.name
`})

	file, _ := a.Files.Get("mod.py")
	stmts, err := a.Imports.GetImportStatements("mod.py")
	require.NoError(t, err)
	scope := Scope{File: file, Exclude: importNodes(stmts)}

	tests := []struct {
		name string
		want bool
	}{
		{"os", true},
		{"os.getcwd", true},
		{"sys", false},
		{"foo", false},
		{"bar", false},
		{"baz", false},
		{"key", false},
		{"call", true},
		{"obj", true},
		{"name", false},
		{"obj.name", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Usage.IsNameUsed(scope, tt.name), tt.name)
	}
}

func TestUsageResolver_SymbolScope(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{"mod.py": `
import json

def dump(v):
    return json.dumps(v)

def other():
    return helper()
`})

	file, _ := a.Files.Get("mod.py")
	ex, err := a.Exports.GetSymbols("mod.py")
	require.NoError(t, err)

	dump, _ := ex.Lookup("dump")
	other, _ := ex.Lookup("other")

	dumpScope := Scope{File: file, Nodes: dump.Nodes}
	otherScope := Scope{File: file, Nodes: other.Nodes}

	assert.True(t, a.Usage.IsNameUsed(dumpScope, "json"))
	assert.False(t, a.Usage.IsNameUsed(otherScope, "json"))
	assert.True(t, a.Usage.IsNameUsed(otherScope, "helper"))
	assert.False(t, a.Usage.IsNameUsed(dumpScope, "helper"))
}

func TestUsageResolver_ExternalAttributes(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{"client.py": `
import requests
from json import dumps, loads

def fetch(url):
    requests.get(url)
    requests.post(url, data=dumps({}))
`})

	file, _ := a.Files.Get("client.py")
	stmts, err := a.Imports.GetImportStatements("client.py")
	require.NoError(t, err)
	scope := Scope{File: file, Exclude: importNodes(stmts)}

	usage := make(ExternalUsageMap)
	assert.True(t, a.Usage.ResolveExternalUsageForItem(scope, "requests", "", "requests", usage))
	assert.True(t, a.Usage.ResolveExternalUsageForItem(scope, "json", "dumps", "dumps", usage))
	assert.False(t, a.Usage.ResolveExternalUsageForItem(scope, "json", "loads", "loads", usage))

	assert.Equal(t, ExternalUsageMap{
		"requests": {"get": {}, "post": {}},
		"json":     {"dumps": {}},
	}, usage)
}

func TestUsageResolver_ModuleAttributes(t *testing.T) {
	t.Parallel()

	a := analyze(t, map[string]string{
		"pkg/__init__.py": "from .impl import Thing\n",
		"pkg/impl.py":     "class Thing:\n    pass\n\nclass Unused:\n    pass\n",
		"pkg/util.py":     "def helper():\n    pass\n",
		"main.py": `
import pkg

pkg.Thing()
pkg.util.helper()
`,
	})

	file, _ := a.Files.Get("main.py")
	stmts, err := a.Imports.GetImportStatements("main.py")
	require.NoError(t, err)
	scope := Scope{File: file, Exclude: importNodes(stmts)}

	pkg := module(t, a, "pkg/__init__.py")
	usage := make(InternalUsageMap)
	require.True(t, a.Usage.ResolveInternalUsageForModule(scope, pkg, "pkg", nil, usage))

	require.Contains(t, usage, "pkg/__init__.py")
	assert.Empty(t, usage["pkg/__init__.py"].Symbols)

	require.Contains(t, usage, "pkg/impl.py")
	assert.Equal(t, map[string]struct{}{"Thing": {}}, usage["pkg/impl.py"].Symbols)

	require.Contains(t, usage, "pkg/util.py")
	assert.Equal(t, map[string]struct{}{"helper": {}}, usage["pkg/util.py"].Symbols)
}
