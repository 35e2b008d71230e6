// Package render produces Graphviz DOT dumps of Propeller's intermediate
// graphs: per-function CFGs (the propeller-dump-cfgs output).
package render

import (
	"fmt"
	"sort"
	"strings"

	"propeller/internal/cfg"
)

// CFGDOT renders one function's CFG for propeller-dump-cfgs:
// "digraph <name>{...}": one node declaration per basic block carrying a
// size= attribute, one edge per intra-function edge carrying a
// label=<edge weight> attribute and a weight= attribute of 1.0 for the
// fallthrough edge and 0.1 for every other edge.
//
// lattice.FuncCFG has no field for block size or edge weight, so this
// dump is hand-built rather than routed through lattice/render — see
// internal/callgraph for where lattice is actually used.
func CFGDOT(g *cfg.CFG) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s{\n", dotID(g.FuncName))

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  bb%d [size=%d];\n", n.Handle, n.Size)
	}

	for _, e := range g.Edges {
		if e.CrossFunc {
			continue
		}
		weight := 0.1
		if n := &g.Nodes[e.Src]; n.FTEdge == e.Handle {
			weight = 1.0
		}
		fmt.Fprintf(&b, "  bb%d -> bb%d [label=%d, weight=%g];\n", e.Src, e.Sink, e.Weight, weight)
	}

	b.WriteString("}\n")
	return b.String()
}

// DumpFilter decides which function CFGs a propeller-dump-cfgs run
// actually emits: an empty list means "dump every function".
type DumpFilter struct {
	names map[string]bool
}

// NewDumpFilter builds a filter from the comma-separated name list passed
// to propeller-dump-cfgs. An empty list matches everything.
func NewDumpFilter(names []string) DumpFilter {
	if len(names) == 0 {
		return DumpFilter{}
	}
	f := DumpFilter{names: make(map[string]bool, len(names))}
	for _, n := range names {
		f.names[n] = true
	}
	return f
}

func (f DumpFilter) Match(funcName string) bool {
	if f.names == nil {
		return true
	}
	return f.names[funcName]
}

// DumpCFGs renders every function matching filter, sorted by name for
// deterministic output ordering.
func DumpCFGs(cfgs map[string]*cfg.CFG, filter DumpFilter) map[string]string {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		if filter.Match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = CFGDOT(cfgs[name])
	}
	return out
}
