// Package audit checks a dependency manifest against metric thresholds and
// reports unused files and circular imports.
package audit

import (
	"fmt"
	"sort"

	"github.com/mvp-joe/depsplit/internal/config"
	"github.com/mvp-joe/depsplit/internal/graph"
	"github.com/mvp-joe/depsplit/internal/manifest"
)

// Metric names match the manifest metric JSON keys.
type Metric string

const (
	MetricCharacterCount       Metric = "characterCount"
	MetricCodeCharacterCount   Metric = "codeCharacterCount"
	MetricLineCount            Metric = "lineCount"
	MetricCodeLineCount        Metric = "codeLineCount"
	MetricDependencyCount      Metric = "dependencyCount"
	MetricDependentCount       Metric = "dependentCount"
	MetricCyclomaticComplexity Metric = "cyclomaticComplexity"
)

// Message is an alert text in short and detailed form.
type Message struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// Alert is a metric that exceeds its target.
type Alert struct {
	Metric   Metric  `json:"metric"`
	Severity int     `json:"severity"` // 1 (low) to 5 (critical)
	Message  Message `json:"message"`
	Value    int     `json:"value"`
	Target   int     `json:"target"`
}

// SymbolAudit holds the alerts of one symbol.
type SymbolAudit struct {
	ID     string  `json:"id"`
	Alerts []Alert `json:"alerts"`
}

// FileAudit holds the alerts of one file and its symbols.
type FileAudit struct {
	ID      string                  `json:"id"`
	Alerts  []Alert                 `json:"alerts"`
	Symbols map[string]*SymbolAudit `json:"symbols"`
}

// AlertCount returns the number of alerts on the file and its symbols.
func (f *FileAudit) AlertCount() int {
	n := len(f.Alerts)
	for _, s := range f.Symbols {
		n += len(s.Alerts)
	}
	return n
}

// Report is the result of an audit run.
type Report struct {
	Files       map[string]*FileAudit `json:"files"`
	UnusedFiles []string              `json:"unusedFiles"`
	Cycles      [][]string            `json:"cycles"`
}

// FilePaths returns the audited files in sorted order.
func (r *Report) FilePaths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AlertCount returns the total number of alerts in the report.
func (r *Report) AlertCount() int {
	n := 0
	for _, f := range r.Files {
		n += f.AlertCount()
	}
	return n
}

type check struct {
	metric Metric
	short  string
	target func(config.Thresholds) int
	value  func(manifest.Metrics) int
}

var checks = []check{
	{MetricCharacterCount, "Too many characters",
		func(t config.Thresholds) int { return t.MaxChar },
		func(m manifest.Metrics) int { return m.CharacterCount }},
	{MetricCodeCharacterCount, "Too many code characters",
		func(t config.Thresholds) int { return t.MaxCodeChar },
		func(m manifest.Metrics) int { return m.CodeCharacterCount }},
	{MetricLineCount, "Too many lines",
		func(t config.Thresholds) int { return t.MaxLine },
		func(m manifest.Metrics) int { return m.LineCount }},
	{MetricCodeLineCount, "Too many code lines",
		func(t config.Thresholds) int { return t.MaxCodeLine },
		func(m manifest.Metrics) int { return m.CodeLineCount }},
	{MetricDependencyCount, "Too many dependencies",
		func(t config.Thresholds) int { return t.MaxDependency },
		func(m manifest.Metrics) int { return m.DependencyCount }},
	{MetricDependentCount, "Too many dependents",
		func(t config.Thresholds) int { return t.MaxDependent },
		func(m manifest.Metrics) int { return m.DependentCount }},
	{MetricCyclomaticComplexity, "Too complex",
		func(t config.Thresholds) int { return t.MaxCyclomaticComplexity },
		func(m manifest.Metrics) int { return m.CyclomaticComplexity }},
}

// EntryPoints recognizes files a language loads without an import naming them.
type EntryPoints interface {
	IsEntryPoint(filePath string) bool
}

// Run audits m. Manifest dependents must already be generated. Files entries
// recognizes are never reported unused; nil entries recognizes none.
func Run(m manifest.Manifest, thresholds config.MetricsConfig, entries EntryPoints) (*Report, error) {
	report := &Report{
		Files:       make(map[string]*FileAudit, len(m)),
		UnusedFiles: []string{},
		Cycles:      [][]string{},
	}

	for _, filePath := range m.FilePaths() {
		fm := m[filePath]
		fa := &FileAudit{
			ID:      fm.ID,
			Alerts:  evaluate("File", fm.Metrics, thresholds.File),
			Symbols: make(map[string]*SymbolAudit, len(fm.Symbols)),
		}
		for name, sym := range fm.Symbols {
			fa.Symbols[name] = &SymbolAudit{
				ID:     sym.ID,
				Alerts: evaluate("Symbol", sym.Metrics, thresholds.Symbol),
			}
		}
		report.Files[filePath] = fa

		if len(fm.Dependents) == 0 && (entries == nil || !entries.IsEntryPoint(filePath)) {
			report.UnusedFiles = append(report.UnusedFiles, filePath)
		}
	}

	g, err := graph.Build(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build file graph: %w", err)
	}
	cycles, err := g.Cycles()
	if err != nil {
		return nil, err
	}
	if cycles != nil {
		report.Cycles = cycles
	}

	return report, nil
}

func evaluate(scope string, metrics manifest.Metrics, t config.Thresholds) []Alert {
	alerts := []Alert{}
	for _, c := range checks {
		target := c.target(t)
		if target <= 0 {
			continue
		}
		value := c.value(metrics)
		if value <= target {
			continue
		}
		alerts = append(alerts, Alert{
			Metric:   c.metric,
			Severity: Severity(value, target),
			Message: Message{
				Short: c.short,
				Long:  fmt.Sprintf("%s exceeds maximum %s (%d/%d)", scope, c.metric, value, target),
			},
			Value:  value,
			Target: target,
		})
	}
	return alerts
}

// Severity grades how far value overshoots target, from 1 to 5.
func Severity(value, target int) int {
	if target <= 0 {
		return 5
	}
	ratio := float64(value) / float64(target)
	switch {
	case ratio <= 1.25:
		return 1
	case ratio <= 1.5:
		return 2
	case ratio <= 2:
		return 3
	case ratio <= 3:
		return 4
	default:
		return 5
	}
}
