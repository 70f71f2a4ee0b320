package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .depsplit/config.yml when present
// - LoadConfig() loads from .depsplit/config.yaml when present
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values
// - An explicit config file must exist
// - LoadConfig() returns error for malformed YAML
// - LoadConfig() returns error for invalid configuration values
// - Write() output loads back unchanged
// - Validate() rejects unknown languages, malformed versions, empty include
//   lists, empty out_dir and negative thresholds
// - Validate() returns multiple errors for multiple invalid fields

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, DirName)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "python", cfg.Language)
	assert.Equal(t, "3.12", cfg.Python.Version)
	assert.Equal(t, []string{"**/*.py"}, cfg.Project.Include)
	assert.Contains(t, cfg.Project.Exclude, ".venv/**")
	assert.Equal(t, ".depsplit", cfg.OutDir)

	assert.Equal(t, 500, cfg.Metrics.File.MaxLine)
	assert.Equal(t, 10, cfg.Metrics.Symbol.MaxCyclomaticComplexity)
	assert.Zero(t, cfg.Metrics.File.MaxDependent)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
language: python
python:
  version: "3.9"
project:
  include:
    - "src/**/*.py"
  exclude:
    - "src/legacy/**"
out_dir: build/depsplit
metrics:
  file:
    max_line: 300
    max_dependent: 12
  symbol:
    max_cyclomatic_complexity: 7
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "3.9", cfg.Python.Version)
	assert.Equal(t, []string{"src/**/*.py"}, cfg.Project.Include)
	assert.Equal(t, []string{"src/legacy/**"}, cfg.Project.Exclude)
	assert.Equal(t, "build/depsplit", cfg.OutDir)
	assert.Equal(t, 300, cfg.Metrics.File.MaxLine)
	assert.Equal(t, 12, cfg.Metrics.File.MaxDependent)
	assert.Equal(t, 7, cfg.Metrics.Symbol.MaxCyclomaticComplexity)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", "python:\n  version: \"3.11\"\n")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "3.11", cfg.Python.Version)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "metrics:\n  file:\n    max_line: 42\n")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, 42, cfg.Metrics.File.MaxLine)
	assert.Equal(t, defaults.Metrics.File.MaxChar, cfg.Metrics.File.MaxChar)
	assert.Equal(t, defaults.Metrics.Symbol, cfg.Metrics.Symbol)
	assert.Equal(t, defaults.Project, cfg.Project)
	assert.Equal(t, defaults.Python.Version, cfg.Python.Version)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "python:\n  version: \"3.9\"\nout_dir: from-file\n")

	t.Setenv("DEPSPLIT_PYTHON_VERSION", "3.13")
	t.Setenv("DEPSPLIT_OUT_DIR", "from-env")
	t.Setenv("DEPSPLIT_METRICS_SYMBOL_MAX_LINE", "25")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "3.13", cfg.Python.Version)
	assert.Equal(t, "from-env", cfg.OutDir)
	assert.Equal(t, 25, cfg.Metrics.Symbol.MaxLine)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("out_dir: custom\n"), 0644))

	cfg, err := NewFileLoader(tempDir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.OutDir)

	_, err = NewFileLoader(tempDir, filepath.Join(tempDir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "python:\n  version: [unclosed\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", "language: cobol\n")

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLanguage)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cfg := Default()
	cfg.Python.Version = "3.10"
	cfg.Metrics.Symbol.MaxDependent = 3

	require.NoError(t, Write(tempDir, cfg))
	assert.FileExists(t, Path(tempDir))

	loaded, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown language", func(c *Config) { c.Language = "ruby" }, ErrInvalidLanguage},
		{"language case-insensitive", func(c *Config) { c.Language = "Python" }, nil},
		{"patch version", func(c *Config) { c.Python.Version = "3.12.1" }, ErrInvalidVersion},
		{"bare major", func(c *Config) { c.Python.Version = "3" }, ErrInvalidVersion},
		{"empty include", func(c *Config) { c.Project.Include = nil }, ErrEmptyInclude},
		{"blank include", func(c *Config) { c.Project.Include = []string{" "} }, ErrEmptyInclude},
		{"empty exclude", func(c *Config) { c.Project.Exclude = nil }, nil},
		{"empty out dir", func(c *Config) { c.OutDir = "  " }, ErrEmptyOutDir},
		{"negative file threshold", func(c *Config) { c.Metrics.File.MaxCodeLine = -1 }, ErrInvalidThreshold},
		{"negative symbol threshold", func(c *Config) { c.Metrics.Symbol.MaxDependent = -5 }, ErrInvalidThreshold},
		{"zero threshold disables", func(c *Config) { c.Metrics.File = Thresholds{} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Language = "ruby"
	cfg.Python.Version = "latest"
	cfg.OutDir = ""

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "invalid language")
	assert.Contains(t, msg, "invalid python version")
	assert.Contains(t, msg, "empty output directory")
}
