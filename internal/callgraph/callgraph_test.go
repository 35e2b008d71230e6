package callgraph

import (
	"testing"

	"github.com/zboralski/lattice/render"

	"propeller/internal/cluster"
)

func TestBuild_DOTOutput(t *testing.T) {
	names := []string{"main", "foo", "bar"}
	edges := []cluster.CallEdge{
		{FromFunc: "main", ToFunc: "foo", Weight: 10},
		{FromFunc: "foo", ToFunc: "bar", Weight: 5},
		{FromFunc: "bar", ToFunc: "foo", Weight: 0, IsReturn: true}, // dropped: return edge
		{FromFunc: "main", ToFunc: "bar", Weight: 0},                // dropped: zero weight
	}

	g := Build(names, edges)
	if len(g.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(g.Edges))
	}

	dot := render.DOT(g, "call graph test")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}
