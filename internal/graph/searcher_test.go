package graph

import (
	"context"
	"testing"

	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileGraph:
// - Build keeps internal edges between manifest files only
// - Dependencies and dependents are found at the requested depth
// - Depth is clamped and defaults apply
// - MaxResults truncates and reports the total
// - Unknown targets and operations fail
// - Cycles are reported once per strongly connected group
// - Traversal terminates on cyclic graphs

// chain builds a.py -> b.py -> c.py -> d.py plus an external and a namespace edge.
func chain() manifest.Manifest {
	m := manifest.Manifest{}
	for _, p := range []string{"a.py", "b.py", "c.py", "d.py"} {
		m[p] = manifest.NewFileManifest(p, "python")
	}
	link(m, "a.py", "b.py", "run")
	link(m, "b.py", "c.py", "Config", "load")
	link(m, "c.py", "d.py", "VALUE")

	m["a.py"].Dependencies["os"] = manifest.NewDependency("os", true)
	ns := manifest.NewDependency("pkg", false)
	ns.IsNamespace = true
	m["a.py"].Dependencies["pkg"] = ns
	m["a.py"].Dependencies["gone.py"] = manifest.NewDependency("gone.py", false)
	m["a.py"].Dependencies["a.py"] = manifest.NewDependency("a.py", false)
	return m
}

func link(m manifest.Manifest, from, to string, symbols ...string) {
	dep := manifest.NewDependency(to, false)
	for _, s := range symbols {
		dep.AddSymbol(s)
	}
	m[from].Dependencies[to] = dep
}

func ids(results []QueryResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Node.ID)
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "a.py", nodes[0].ID)
	assert.Equal(t, "python", nodes[0].Language)

	assert.Equal(t, []Edge{
		{From: "a.py", To: "b.py", Symbols: []string{"run"}},
		{From: "b.py", To: "c.py", Symbols: []string{"Config", "load"}},
		{From: "c.py", To: "d.py", Symbols: []string{"VALUE"}},
	}, g.Edges())
}

func TestQuery_Depth(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name  string
		op    QueryOperation
		tgt   string
		depth int
		want  []string
	}{
		{"direct dependencies", OperationDependencies, "a.py", 1, []string{"b.py"}},
		{"transitive dependencies", OperationDependencies, "a.py", 3, []string{"b.py", "c.py", "d.py"}},
		{"default depth", OperationDependencies, "b.py", 0, []string{"c.py"}},
		{"direct dependents", OperationDependents, "d.py", 1, []string{"c.py"}},
		{"transitive dependents", OperationDependents, "d.py", 2, []string{"c.py", "b.py"}},
		{"leaf", OperationDependencies, "d.py", 5, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := g.Query(ctx, &QueryRequest{Operation: tt.op, Target: tt.tgt, Depth: tt.depth})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp.Results))
			assert.Equal(t, string(tt.op), resp.Operation)
			assert.Equal(t, "manifest", resp.Metadata.Source)
			assert.False(t, resp.Truncated)
		})
	}
}

func TestQuery_ResultDepths(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)

	resp, err := g.Query(context.Background(), &QueryRequest{
		Operation: OperationDependencies,
		Target:    "a.py",
		Depth:     50,
	})
	require.NoError(t, err)

	depths := map[string]int{}
	for _, r := range resp.Results {
		depths[r.Node.ID] = r.Depth
	}
	assert.Equal(t, map[string]int{"b.py": 1, "c.py": 2, "d.py": 3}, depths)
}

func TestQuery_Truncated(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)

	resp, err := g.Query(context.Background(), &QueryRequest{
		Operation:  OperationDependencies,
		Target:     "a.py",
		Depth:      MaxDepth,
		MaxResults: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.py", "c.py"}, ids(resp.Results))
	assert.Equal(t, 3, resp.TotalFound)
	assert.Equal(t, 2, resp.TotalReturned)
	assert.True(t, resp.Truncated)
}

func TestQuery_Errors(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = g.Query(ctx, &QueryRequest{Operation: OperationDependencies, Target: "nope.py"})
	assert.ErrorIs(t, err, ErrUnknownFile)

	_, err = g.Query(ctx, &QueryRequest{Operation: "callers", Target: "a.py"})
	assert.ErrorContains(t, err, "unsupported operation")
}

func TestCycles(t *testing.T) {
	t.Parallel()

	m := manifest.Manifest{}
	for _, p := range []string{"a.py", "b.py", "c.py", "x.py", "y.py", "solo.py"} {
		m[p] = manifest.NewFileManifest(p, "python")
	}
	link(m, "a.py", "b.py")
	link(m, "b.py", "c.py")
	link(m, "c.py", "a.py")
	link(m, "x.py", "y.py")
	link(m, "y.py", "x.py")
	link(m, "solo.py", "a.py")

	g, err := Build(m)
	require.NoError(t, err)

	cycles, err := g.Cycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"a.py", "b.py", "c.py"},
		{"x.py", "y.py"},
	}, cycles)

	// Traversal terminates and reports the target once when the cycle returns to it.
	resp, err := g.Query(context.Background(), &QueryRequest{
		Operation: OperationDependencies,
		Target:    "a.py",
		Depth:     MaxDepth,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py", "c.py", "a.py"}, ids(resp.Results))
	assert.Equal(t, 3, resp.Results[2].Depth)
}

func TestCycles_Acyclic(t *testing.T) {
	t.Parallel()

	g, err := Build(chain())
	require.NoError(t, err)

	cycles, err := g.Cycles()
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
