package python

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// project converts inline fixtures into a source snapshot. A leading newline
// in each fixture is dropped so raw strings can start on their own line.
func project(files map[string]string) map[string][]byte {
	sources := make(map[string][]byte, len(files))
	for path, text := range files {
		sources[path] = []byte(strings.TrimPrefix(text, "\n"))
	}
	return sources
}

// analyze builds an Analysis over inline fixtures and closes it with the test.
func analyze(t *testing.T, files map[string]string) *Analysis {
	t.Helper()

	a, err := NewAnalysis(context.Background(), project(files), DefaultVersion)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func module(t *testing.T, a *Analysis, path string) *Module {
	t.Helper()

	m, err := a.Modules.GetModuleFromFilePath(path)
	require.NoError(t, err)
	return m
}

func symbolIDs(ex *ModuleExports) []string {
	ids := make([]string, 0, len(ex.Symbols))
	for _, s := range ex.Symbols {
		ids = append(ids, s.ID)
	}
	return ids
}
