package python

import (
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// decisionKinds are the node kinds that add a path to cyclomatic complexity.
var decisionKinds = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"while_statement":        true,
	"for_statement":          true,
	"except_clause":          true,
	"except_group_clause":    true,
	"boolean_operator":       true,
	"conditional_expression": true,
	"if_clause":              true,
	"case_clause":            true,
}

// MetricsAnalyzer measures size and complexity of syntax spans.
type MetricsAnalyzer struct{}

// Analyze sums the metrics of nodes, which must belong to file.
// Complexity starts at one and adds one per decision point across all nodes.
func (MetricsAnalyzer) Analyze(file *treesitter.File, nodes []*sitter.Node) manifest.Metrics {
	metrics := manifest.Metrics{CyclomaticComplexity: 1}
	if len(nodes) == 0 {
		return metrics
	}

	lines := strings.Split(string(file.Source), "\n")
	for _, node := range nodes {
		measureNode(file, lines, node, &metrics)
	}
	return metrics
}

func measureNode(file *treesitter.File, lines []string, node *sitter.Node, metrics *manifest.Metrics) {
	start, end := node.StartPosition(), node.EndPosition()
	startRow, endRow := int(start.Row), int(end.Row)
	endCol := int(end.Column)
	// A node ending at column 0 stops at the newline of the previous row.
	if endCol == 0 && endRow > startRow {
		endRow--
		endCol = -1
	}

	metrics.LineCount += endRow - startRow + 1
	metrics.CharacterCount += utf8.RuneCountInString(file.Text(node))

	commentAt := make(map[int]int)
	treesitter.WalkTree(node, func(n *sitter.Node) bool {
		if decisionKinds[n.Kind()] {
			metrics.CyclomaticComplexity++
		}
		if n.Kind() == "comment" {
			row := int(n.StartPosition().Row)
			if _, seen := commentAt[row]; !seen {
				commentAt[row] = int(n.StartPosition().Column)
			}
		}
		return true
	})

	for row := startRow; row <= endRow && row < len(lines); row++ {
		line := lines[row]
		lineStart := 0

		if row == endRow && endCol >= 0 && endCol < len(line) {
			line = line[:endCol]
		}
		if col, ok := commentAt[row]; ok && col <= len(line) {
			line = line[:col]
		}
		if row == startRow {
			lineStart = int(start.Column)
		}
		if lineStart > len(line) {
			continue
		}

		code := strings.Join(strings.Fields(line[lineStart:]), " ")
		if code == "" {
			continue
		}
		metrics.CodeLineCount++
		metrics.CodeCharacterCount += utf8.RuneCountInString(code)
	}
}
