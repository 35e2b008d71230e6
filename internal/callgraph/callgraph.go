// Package callgraph builds the whole-program call graph from the same
// cross-function call edges that C6 clustering consumes, and renders it
// with github.com/zboralski/lattice for the optional DOT dump. Clustering
// itself works on the edge list and does not use this graph.
package callgraph

import (
	"github.com/zboralski/lattice"

	"propeller/internal/cluster"
)

// Build constructs a lattice.Graph from every function's name and the
// aggregated cross-function call edges gathered from their CFGs (one entry
// per distinct caller/callee pair, flattened across the program). Return
// edges and zero-weight edges are excluded: they carry no clustering
// signal and would only clutter the dump.
func Build(funcNames []string, edges []cluster.CallEdge) *lattice.Graph {
	g := &lattice.Graph{}
	g.Nodes = append(g.Nodes, funcNames...)
	for _, e := range edges {
		if e.IsReturn || e.Weight == 0 {
			continue
		}
		g.Edges = append(g.Edges, lattice.Edge{Caller: e.FromFunc, Callee: e.ToFunc})
	}
	g.Dedup()
	return g
}
