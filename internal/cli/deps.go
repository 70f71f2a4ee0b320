package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/depsplit/internal/graph"
	"github.com/spf13/cobra"
)

var (
	depsDependentsFlag bool
	depsDepthFlag      int
	depsMaxFlag        int
	depsJSONFlag       bool
)

// depsCmd represents the deps command
var depsCmd = &cobra.Command{
	Use:   "deps FILE",
	Short: "Show the internal dependencies or dependents of a file",
	Long: `Deps walks the file graph of the manifest from FILE. By default it lists
the files FILE imports; --dependents lists the files importing FILE instead.
External modules are not part of the graph.

Examples:
  # Direct imports of a file
  depsplit deps pkg/service.py

  # Everything that reaches pkg/models.py within three hops
  depsplit deps pkg/models.py --dependents --depth 3
`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
	depsCmd.Flags().BoolVar(&depsDependentsFlag, "dependents", false, "List files importing FILE")
	depsCmd.Flags().IntVarP(&depsDepthFlag, "depth", "d", graph.DefaultDepth, fmt.Sprintf("Traversal depth (max %d)", graph.MaxDepth))
	depsCmd.Flags().IntVar(&depsMaxFlag, "max-results", graph.DefaultMaxResults, "Maximum number of files to list")
	depsCmd.Flags().BoolVar(&depsJSONFlag, "json", false, "Print the response as JSON")
}

func runDeps(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := loadProject()
	if err != nil {
		return err
	}

	m, err := loadManifest(ctx, p)
	if err != nil {
		return err
	}

	g, err := graph.Build(m)
	if err != nil {
		return err
	}

	op := graph.OperationDependencies
	if depsDependentsFlag {
		op = graph.OperationDependents
	}

	resp, err := g.Query(ctx, &graph.QueryRequest{
		Operation:  op,
		Target:     p.relativePath(args[0]),
		Depth:      depsDepthFlag,
		MaxResults: depsMaxFlag,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if depsJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printQueryResponse(out, resp)
	return nil
}

// relativePath turns a command-line path into a manifest key.
func (p *project) relativePath(arg string) string {
	if filepath.IsAbs(arg) {
		if rel, err := filepath.Rel(p.root, arg); err == nil {
			arg = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(arg)), "./")
}

func printQueryResponse(w io.Writer, resp *graph.QueryResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "No %s found for %s\n", resp.Operation, resp.Target)
		return
	}

	fmt.Fprintf(w, "%s of %s:\n", strings.ToUpper(resp.Operation[:1])+resp.Operation[1:], resp.Target)
	for _, r := range resp.Results {
		fmt.Fprintf(w, "  %s%s\n", strings.Repeat("  ", r.Depth-1), r.Node.ID)
	}
	if resp.Truncated {
		fmt.Fprintf(w, "  ... %d of %d shown\n", resp.TotalReturned, resp.TotalFound)
	}
}
