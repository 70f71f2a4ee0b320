package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mvp-joe/depsplit/internal/config"
	"github.com/spf13/cobra"
)

var initForceFlag bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .depsplit/config.yml",
	Long: `Init writes the default configuration to .depsplit/config.yml in the
project root. An existing file is left alone unless --force is given.

Examples:
  # Initialize the current directory
  depsplit init

  # Overwrite an existing configuration
  depsplit init --force
`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	return initProject(root, initForceFlag, cmd.OutOrStdout())
}

func initProject(root string, force bool, out io.Writer) error {
	path := config.Path(root)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Write(root, config.Default()); err != nil {
		return err
	}

	if !isQuiet() {
		fmt.Fprintf(out, "✓ Wrote %s\n", path)
	}
	return nil
}
