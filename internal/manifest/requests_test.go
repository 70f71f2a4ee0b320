package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for extraction request documents:
// - Plain JSON and JSON with comments both parse
// - Documents violating the schema fail with ErrInvalidRequests
// - LoadRequests reports unreadable files

func TestParseRequests(t *testing.T) {
	t.Parallel()

	got, err := ParseRequests([]byte(`
// symbols for the billing slice
[
  {"filePath": "billing/invoice.py", "symbolNames": ["Invoice", "render"]},
  /* tax helpers */
  {"filePath": "billing/tax.py", "symbolNames": ["rate"]}
]`))
	require.NoError(t, err)
	assert.Equal(t, []ExtractionRequest{
		{FilePath: "billing/invoice.py", SymbolNames: []string{"Invoice", "render"}},
		{FilePath: "billing/tax.py", SymbolNames: []string{"rate"}},
	}, got)
}

func TestParseRequests_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"not an array", `{"filePath": "a.py", "symbolNames": ["x"]}`},
		{"empty list", `[]`},
		{"missing symbols", `[{"filePath": "a.py"}]`},
		{"empty symbols", `[{"filePath": "a.py", "symbolNames": []}]`},
		{"empty path", `[{"filePath": "", "symbolNames": ["x"]}]`},
		{"unknown field", `[{"filePath": "a.py", "symbolNames": ["x"], "depth": 2}]`},
		{"wrong type", `[{"filePath": "a.py", "symbolNames": "x"}]`},
		{"malformed", `[{"filePath": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseRequests([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidRequests)
		})
	}
}

func TestLoadRequests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "requests.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`[{"filePath": "a.py", "symbolNames": ["x"]}]`), 0644))

	got, err := LoadRequests(path)
	require.NoError(t, err)
	assert.Equal(t, []ExtractionRequest{{FilePath: "a.py", SymbolNames: []string{"x"}}}, got)

	_, err = LoadRequests(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
