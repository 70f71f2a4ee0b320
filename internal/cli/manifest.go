package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/depsplit/internal/files"
	"github.com/mvp-joe/depsplit/internal/lang"
	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/spf13/cobra"

	// Registers the python language plugin
	_ "github.com/mvp-joe/depsplit/internal/lang/python"
)

var manifestViewJSONFlag bool

// manifestCmd groups the manifest subcommands
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Generate or inspect the dependency manifest",
}

var manifestGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Analyze the project and write the dependency manifest",
	Long: `Generate discovers the project files matching project.include (minus
project.exclude), resolves every import, and writes the manifest to
<out_dir>/manifest.json.

Examples:
  # Analyze the current directory
  depsplit manifest generate

  # Analyze another project without progress output
  depsplit -C ../service manifest generate --quiet
`,
	Args: cobra.NoArgs,
	RunE: runManifestGenerate,
}

var manifestViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Summarize the saved manifest",
	Args:  cobra.NoArgs,
	RunE:  runManifestView,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestGenerateCmd)
	manifestCmd.AddCommand(manifestViewCmd)
	manifestViewCmd.Flags().BoolVar(&manifestViewJSONFlag, "json", false, "Print the raw manifest JSON")
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nInterrupted! Cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// plugin returns the language plugin selected by the config.
func (p *project) plugin() (lang.Plugin, error) {
	return lang.Lookup(p.cfg.Language)
}

// sources discovers and reads the project snapshot.
func (p *project) sources() (map[string][]byte, error) {
	exclude := append([]string(nil), p.cfg.Project.Exclude...)
	if rel, err := filepath.Rel(p.root, p.outDir()); err == nil && !filepath.IsAbs(rel) && rel != "." {
		exclude = append(exclude, filepath.ToSlash(rel)+"/**")
	}
	return files.Load(p.root, p.cfg.Project.Include, exclude, p.cfg.Project.RespectGitignore)
}

func (p *project) options(progress lang.ProgressReporter) lang.Options {
	return lang.Options{Version: p.cfg.Python.Version, Progress: progress}
}

// generateManifest analyzes the project snapshot.
func generateManifest(ctx context.Context, p *project, progress *CLIProgressReporter) (manifest.Manifest, map[string][]byte, error) {
	plugin, err := p.plugin()
	if err != nil {
		return nil, nil, err
	}

	sources, err := p.sources()
	if err != nil {
		return nil, nil, err
	}
	progress.OnDiscoveryComplete(len(sources))

	m, err := lang.GenerateManifest(ctx, plugin, sources, p.options(progress))
	if err != nil {
		return nil, nil, err
	}
	return m, sources, nil
}

// loadManifest reads the saved manifest, generating and saving one when
// none exists yet.
func loadManifest(ctx context.Context, p *project) (manifest.Manifest, error) {
	m, err := manifest.Load(p.manifestPath())
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	m, _, err = generateManifest(ctx, p, NewCLIProgressReporter(isQuiet()))
	if err != nil {
		return nil, err
	}
	if err := m.Save(p.manifestPath()); err != nil {
		return nil, err
	}
	return m, nil
}

func runManifestGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := loadProject()
	if err != nil {
		return err
	}

	m, _, err := generateManifest(ctx, p, NewCLIProgressReporter(isQuiet()))
	if err != nil {
		return err
	}

	if err := m.Save(p.manifestPath()); err != nil {
		return err
	}

	if !isQuiet() {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Manifest written to %s\n", p.manifestPath())
	}
	return nil
}

func runManifestView(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}

	m, err := manifest.Load(p.manifestPath())
	if err != nil {
		return fmt.Errorf("%w (run 'depsplit manifest generate' first)", err)
	}

	if manifestViewJSONFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	printManifestSummary(cmd.OutOrStdout(), m)
	return nil
}

// printManifestSummary writes one line per file with its symbol and edge counts.
func printManifestSummary(w io.Writer, m manifest.Manifest) {
	var symbols, internal, external int
	for _, path := range m.FilePaths() {
		fm := m[path]
		in, ex := 0, 0
		for _, dep := range fm.Dependencies {
			if dep.IsExternal {
				ex++
			} else {
				in++
			}
		}
		symbols += len(fm.Symbols)
		internal += in
		external += ex

		fmt.Fprintf(w, "%-50s %4d symbols  %3d internal  %3d external  %3d dependents\n",
			path, len(fm.Symbols), in, ex, len(fm.Dependents))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files:      %s\n", formatNumber(len(m)))
	fmt.Fprintf(w, "Symbols:    %s\n", formatNumber(symbols))
	fmt.Fprintf(w, "Edges:      %s internal, %s external\n", formatNumber(internal), formatNumber(external))
}
