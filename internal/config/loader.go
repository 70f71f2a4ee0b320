package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader reading an explicit config file instead of
// searching .depsplit/ under rootDir. The file must exist.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DEPSPLIT_*)
// 2. Config file (.depsplit/config.yml or .depsplit/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	// Replace . with _ in env var names (e.g., DEPSPLIT_PYTHON_VERSION)
	v.SetEnvPrefix("DEPSPLIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("language")
	v.BindEnv("python.version")
	v.BindEnv("out_dir")
	v.BindEnv("project.respect_gitignore")
	for _, scope := range []string{"file", "symbol"} {
		for _, key := range thresholdKeys {
			v.BindEnv("metrics." + scope + "." + key)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var thresholdKeys = []string{
	"max_char",
	"max_code_char",
	"max_line",
	"max_code_line",
	"max_dependency",
	"max_dependent",
	"max_cyclomatic_complexity",
}

func thresholdValues(t Thresholds) []int {
	return []int{
		t.MaxChar,
		t.MaxCodeChar,
		t.MaxLine,
		t.MaxCodeLine,
		t.MaxDependency,
		t.MaxDependent,
		t.MaxCyclomaticComplexity,
	}
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("language", defaults.Language)
	v.SetDefault("python.version", defaults.Python.Version)
	v.SetDefault("project.include", defaults.Project.Include)
	v.SetDefault("project.exclude", defaults.Project.Exclude)
	v.SetDefault("project.respect_gitignore", defaults.Project.RespectGitignore)
	v.SetDefault("out_dir", defaults.OutDir)

	for i, val := range thresholdValues(defaults.Metrics.File) {
		v.SetDefault("metrics.file."+thresholdKeys[i], val)
	}
	for i, val := range thresholdValues(defaults.Metrics.Symbol) {
		v.SetDefault("metrics.symbol."+thresholdKeys[i], val)
	}
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
