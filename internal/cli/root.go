package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-joe/depsplit/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	workDir string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "depsplit",
	Short: "depsplit - dependency manifests and symbol extraction for Python projects",
	Long: `depsplit analyzes a Python project into a symbol-level dependency manifest.

The manifest records, for every file and every top-level symbol, which files
and external modules it depends on and which names it uses from them. It backs
the audit, deps and extract commands:

  depsplit manifest generate   analyze the project and write the manifest
  depsplit audit               check metric thresholds, unused files and cycles
  depsplit deps FILE           show what a file imports or what imports it
  depsplit extract             copy a minimal, still-parsing subset of the project`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <workdir>/.depsplit/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable progress bars and non-error output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// project is a loaded working directory and its configuration.
type project struct {
	root string
	cfg  *config.Config
}

// loadProject resolves the working directory and loads its configuration.
func loadProject() (*project, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	var loader config.Loader
	if file := viper.GetString("config"); file != "" {
		loader = config.NewFileLoader(root, file)
	} else {
		loader = config.NewLoader(root)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Project root: %s (language %s, python %s)\n", root, cfg.Language, cfg.Python.Version)
	}
	return &project{root: root, cfg: cfg}, nil
}

func resolveRoot() (string, error) {
	root := viper.GetString("workdir")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	return abs, nil
}

// outDir returns the absolute output directory of the project.
func (p *project) outDir() string {
	if filepath.IsAbs(p.cfg.OutDir) {
		return p.cfg.OutDir
	}
	return filepath.Join(p.root, p.cfg.OutDir)
}

// manifestPath is where manifest generate writes and the other commands read.
func (p *project) manifestPath() string {
	return filepath.Join(p.outDir(), "manifest.json")
}

func isQuiet() bool {
	return viper.GetBool("quiet")
}
