package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/audit"
	"github.com/spf13/cobra"
)

var (
	auditJSONFlag bool
	auditFailFlag bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check manifest metrics against the configured thresholds",
	Long: `Audit compares every file and symbol of the manifest against the
metrics.file and metrics.symbol thresholds of the config, lists files nothing
imports, and reports groups of files that import each other in a cycle.

The saved manifest is used when present; otherwise one is generated first.

Examples:
  # Human-readable report
  depsplit audit

  # Machine-readable report, failing when any alert is raised
  depsplit audit --json --fail
`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().BoolVar(&auditJSONFlag, "json", false, "Print the report as JSON")
	auditCmd.Flags().BoolVar(&auditFailFlag, "fail", false, "Exit with an error when alerts or cycles are found")
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	plugin, err := p.plugin()
	if err != nil {
		return err
	}

	report, err := audit.Run(m, p.cfg.Metrics, plugin)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if auditJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printAuditReport(out, report)
	}

	if auditFailFlag && (report.AlertCount() > 0 || len(report.Cycles) > 0) {
		return fmt.Errorf("audit failed: %d alerts, %d cycles", report.AlertCount(), len(report.Cycles))
	}
	return nil
}

func printAuditReport(w io.Writer, report *audit.Report) {
	for _, path := range report.FilePaths() {
		fa := report.Files[path]
		if fa.AlertCount() == 0 {
			continue
		}

		fmt.Fprintln(w, path)
		for _, a := range fa.Alerts {
			printAlert(w, "  ", a)
		}

		names := make([]string, 0, len(fa.Symbols))
		for name, s := range fa.Symbols {
			if len(s.Alerts) > 0 {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s\n", name)
			for _, a := range fa.Symbols[name].Alerts {
				printAlert(w, "    ", a)
			}
		}
	}

	if len(report.UnusedFiles) > 0 {
		fmt.Fprintf(w, "\nUnused files (%d):\n", len(report.UnusedFiles))
		for _, path := range report.UnusedFiles {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}

	if len(report.Cycles) > 0 {
		fmt.Fprintf(w, "\nCircular imports (%d):\n", len(report.Cycles))
		for _, c := range report.Cycles {
			fmt.Fprintf(w, "  %s\n", strings.Join(c, " <-> "))
		}
	}

	fmt.Fprintf(w, "\n%s alerts, %s unused files, %s cycles\n",
		formatNumber(report.AlertCount()), formatNumber(len(report.UnusedFiles)), formatNumber(len(report.Cycles)))
}

func printAlert(w io.Writer, indent string, a audit.Alert) {
	fmt.Fprintf(w, "%s[%d] %s: %s\n", indent, a.Severity, a.Message.Short, a.Message.Long)
}
