package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirName is the per-project directory holding config and generated output.
const DirName = ".depsplit"

// Config represents the complete depsplit configuration.
// It can be loaded from .depsplit/config.yml with environment variable overrides.
type Config struct {
	Language string        `yaml:"language" mapstructure:"language"` // Language plugin name
	Python   PythonConfig  `yaml:"python" mapstructure:"python"`
	Project  ProjectConfig `yaml:"project" mapstructure:"project"`
	OutDir   string        `yaml:"out_dir" mapstructure:"out_dir"` // Where manifests and extractions are written
	Metrics  MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// PythonConfig configures the Python analyzer.
type PythonConfig struct {
	Version string `yaml:"version" mapstructure:"version"` // major.minor, selects the stdlib table
}

// ProjectConfig defines which files belong to the analyzed snapshot.
type ProjectConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Exclude []string `yaml:"exclude" mapstructure:"exclude"` // glob patterns to skip

	RespectGitignore bool `yaml:"respect_gitignore" mapstructure:"respect_gitignore"` // also skip paths in the root .gitignore
}

// MetricsConfig holds audit thresholds for files and symbols.
type MetricsConfig struct {
	File   Thresholds `yaml:"file" mapstructure:"file"`
	Symbol Thresholds `yaml:"symbol" mapstructure:"symbol"`
}

// Thresholds are upper bounds for manifest metrics. Zero disables a check.
type Thresholds struct {
	MaxChar                 int `yaml:"max_char" mapstructure:"max_char"`
	MaxCodeChar             int `yaml:"max_code_char" mapstructure:"max_code_char"`
	MaxLine                 int `yaml:"max_line" mapstructure:"max_line"`
	MaxCodeLine             int `yaml:"max_code_line" mapstructure:"max_code_line"`
	MaxDependency           int `yaml:"max_dependency" mapstructure:"max_dependency"`
	MaxDependent            int `yaml:"max_dependent" mapstructure:"max_dependent"`
	MaxCyclomaticComplexity int `yaml:"max_cyclomatic_complexity" mapstructure:"max_cyclomatic_complexity"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Language: "python",
		Python: PythonConfig{
			Version: "3.12",
		},
		Project: ProjectConfig{
			Include: []string{
				"**/*.py",
			},
			Exclude: []string{
				".git/**",
				".venv/**",
				"venv/**",
				"env/**",
				"**/__pycache__/**",
				"**/site-packages/**",
				"build/**",
				"dist/**",
				".tox/**",
				".mypy_cache/**",
				".pytest_cache/**",
			},
			RespectGitignore: true,
		},
		OutDir: DirName,
		Metrics: MetricsConfig{
			File: Thresholds{
				MaxChar:                 20000,
				MaxLine:                 500,
				MaxDependency:           20,
				MaxCyclomaticComplexity: 50,
			},
			Symbol: Thresholds{
				MaxChar:                 5000,
				MaxLine:                 100,
				MaxDependency:           10,
				MaxCyclomaticComplexity: 10,
			},
		},
	}
}

// Path returns the config file location under rootDir.
func Path(rootDir string) string {
	return filepath.Join(rootDir, DirName, "config.yml")
}

// Write saves cfg as YAML to .depsplit/config.yml under rootDir.
func Write(rootDir string, cfg *Config) error {
	path := Path(rootDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
