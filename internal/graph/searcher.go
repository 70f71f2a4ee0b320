package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/mvp-joe/depsplit/internal/manifest"
)

// QueryOperation represents the type of graph query to perform.
type QueryOperation string

const (
	OperationDependencies QueryOperation = "dependencies"
	OperationDependents   QueryOperation = "dependents"
)

// Query defaults and limits
const (
	DefaultDepth      = 1
	DefaultMaxResults = 100
	MaxDepth          = 10
)

// ErrUnknownFile is returned when a query targets a file outside the graph.
var ErrUnknownFile = errors.New("file not in dependency graph")

// QueryRequest represents a graph query request.
type QueryRequest struct {
	Operation  QueryOperation // Type of query
	Target     string         // File path to query
	Depth      int            // Traversal depth (default: 1, max: 10)
	MaxResults int            // Maximum number of results (default: 100)
}

// QueryResponse represents the response to a graph query.
type QueryResponse struct {
	Operation     string        `json:"operation"`
	Target        string        `json:"target"`
	Results       []QueryResult `json:"results"`
	TotalFound    int           `json:"total_found"`
	TotalReturned int           `json:"total_returned"`
	Truncated     bool          `json:"truncated"`
	Metadata      ResponseMeta  `json:"metadata"`
}

// QueryResult represents a single result from a graph query.
type QueryResult struct {
	Node  *Node `json:"node"`
	Depth int   `json:"depth"` // Hops from the target
}

// ResponseMeta contains metadata about the query execution.
type ResponseMeta struct {
	TookMs int    `json:"took_ms"`
	Source string `json:"source"` // Always "manifest"
}

// FileGraph is the internal file dependency graph of a manifest.
type FileGraph struct {
	graph graph.Graph[string, *Node]
	edges []Edge

	// Adjacency indexes, sorted per key
	dependencies map[string][]string // file -> [files it imports]
	dependents   map[string][]string // file -> [files importing it]
}

// resultWithDepth is an internal type for tracking depth in traversal.
type resultWithDepth struct {
	id    string
	depth int
}

// Build creates the file graph of m. External, namespace and self edges are
// skipped, as are edges to files outside the manifest.
func Build(m manifest.Manifest) (*FileGraph, error) {
	g := &FileGraph{
		graph:        graph.New(func(n *Node) string { return n.ID }, graph.Directed()),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
	}

	paths := m.FilePaths()
	for _, path := range paths {
		fm := m[path]
		node := &Node{
			ID:       path,
			Language: fm.Language,
			Symbols:  len(fm.Symbols),
			Metrics:  fm.Metrics,
		}
		if err := g.graph.AddVertex(node); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", path, err)
		}
	}

	for _, path := range paths {
		deps := m[path].Dependencies
		ids := make([]string, 0, len(deps))
		for id := range deps {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			dep := deps[id]
			if dep.IsExternal || dep.IsNamespace || id == path {
				continue
			}
			if _, ok := m[id]; !ok {
				continue
			}
			if err := g.graph.AddEdge(path, id); err != nil {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", path, id, err)
			}

			symbols := make([]string, 0, len(dep.Symbols))
			for name := range dep.Symbols {
				symbols = append(symbols, name)
			}
			manifest.SortKeys(symbols)

			g.edges = append(g.edges, Edge{From: path, To: id, Symbols: symbols})
			g.dependencies[path] = append(g.dependencies[path], id)
			g.dependents[id] = append(g.dependents[id], path)
		}
	}

	for _, ids := range g.dependents {
		sort.Strings(ids)
	}
	return g, nil
}

// Nodes returns every file node, sorted by path.
func (g *FileGraph) Nodes() []*Node {
	adj, _ := g.graph.AdjacencyMap()
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, err := g.graph.Vertex(id); err == nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Edges returns the internal edges, sorted by source then target.
func (g *FileGraph) Edges() []Edge {
	return g.edges
}

// Query executes a graph query.
func (g *FileGraph) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	startTime := time.Now()

	if req.Depth <= 0 {
		req.Depth = DefaultDepth
	}
	if req.Depth > MaxDepth {
		req.Depth = MaxDepth
	}
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}

	if _, err := g.graph.Vertex(req.Target); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, req.Target)
	}

	var index map[string][]string
	switch req.Operation {
	case OperationDependencies:
		index = g.dependencies
	case OperationDependents:
		index = g.dependents
	default:
		return nil, fmt.Errorf("unsupported operation: %s", req.Operation)
	}

	found := traverse(index, req.Target, req.Depth)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []QueryResult{}
	for _, rd := range found {
		node, err := g.graph.Vertex(rd.id)
		if err != nil {
			continue
		}
		results = append(results, QueryResult{Node: node, Depth: rd.depth})
		if len(results) >= req.MaxResults {
			break
		}
	}

	return &QueryResponse{
		Operation:     string(req.Operation),
		Target:        req.Target,
		Results:       results,
		TotalFound:    len(found),
		TotalReturned: len(results),
		Truncated:     len(results) < len(found),
		Metadata: ResponseMeta{
			TookMs: int(time.Since(startTime).Milliseconds()),
			Source: "manifest",
		},
	}, nil
}

// traverse walks index breadth-first from target up to depth hops. Each file
// is reported once, at the shallowest depth it is reached; the target itself
// only appears when a cycle leads back to it.
func traverse(index map[string][]string, target string, depth int) []resultWithDepth {
	results := []resultWithDepth{}
	visited := map[string]int{target: 0}
	frontier := []string{target}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range index[id] {
				if _, seen := visited[neighbor]; seen {
					if neighbor == target && !reported(results, target) {
						results = append(results, resultWithDepth{id: target, depth: level})
					}
					continue
				}
				visited[neighbor] = level
				results = append(results, resultWithDepth{id: neighbor, depth: level})
				next = append(next, neighbor)
			}
		}
		frontier = next
	}
	return results
}

func reported(results []resultWithDepth, id string) bool {
	for _, r := range results {
		if r.id == id {
			return true
		}
	}
	return false
}

// Cycles returns every group of files that import each other, directly or
// transitively. Each group is sorted and groups are ordered by their first file.
func (g *FileGraph) Cycles() ([][]string, error) {
	components, err := graph.StronglyConnectedComponents(g.graph)
	if err != nil {
		return nil, fmt.Errorf("failed to compute strongly connected components: %w", err)
	}

	var cycles [][]string
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		group := append([]string(nil), c...)
		sort.Strings(group)
		cycles = append(cycles, group)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles, nil
}
