package graph

import "github.com/mvp-joe/depsplit/internal/manifest"

// Node is an analyzed file.
type Node struct {
	ID       string           `json:"id"`       // Project-relative file path
	Language string           `json:"language"` // Manifest language tag
	Symbols  int              `json:"symbols"`  // Number of top-level symbols
	Metrics  manifest.Metrics `json:"metrics"`
}

// Edge is an internal file-to-file dependency.
type Edge struct {
	From    string   `json:"from"`    // Importing file
	To      string   `json:"to"`      // Imported file
	Symbols []string `json:"symbols"` // Names used through the edge, sorted
}
