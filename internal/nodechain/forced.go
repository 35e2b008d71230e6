package nodechain

import "propeller/internal/cfg"

// forcedEdge is one mutually-forced intra-func edge: its source has
// exactly one profiled (weight>0) intra-func/intra-dynamic out, and its
// sink has exactly one such in.
type forcedEdge struct {
	Src, Sink cfg.NodeHandle
	Edge      cfg.EdgeHandle
}

func isProfiledIntra(e *cfg.Edge) bool {
	return e.Weight > 0 && (e.Kind == cfg.EdgeIntraFunc || e.Kind == cfg.EdgeIntraDynamic)
}

// detectMutuallyForced finds mutually-forced edges and breaks any cycles
// among them by removing, per cycle, the edge whose sink has the smallest
// address.
func detectMutuallyForced(g *cfg.CFG) []forcedEdge {
	profiledOutCount := make(map[cfg.NodeHandle]int)
	profiledInCount := make(map[cfg.NodeHandle]int)
	soleOut := make(map[cfg.NodeHandle]cfg.EdgeHandle)

	for i := range g.Nodes {
		n := &g.Nodes[i]
		for _, eh := range n.Outs {
			e := &g.Edges[eh]
			if !isProfiledIntra(e) {
				continue
			}
			profiledOutCount[n.Handle]++
			profiledInCount[e.Sink]++
			soleOut[n.Handle] = eh
		}
	}

	var candidates []forcedEdge
	for src, cnt := range profiledOutCount {
		if cnt != 1 {
			continue
		}
		eh := soleOut[src]
		e := &g.Edges[eh]
		if profiledInCount[e.Sink] == 1 {
			candidates = append(candidates, forcedEdge{Src: src, Sink: e.Sink, Edge: eh})
		}
	}

	return breakForcedCycles(g, candidates)
}

// breakForcedCycles walks the functional graph induced by candidate
// forced edges (each node has at most one forced out) and, for every
// cycle found, removes the edge whose sink has the smallest address.
func breakForcedCycles(g *cfg.CFG, candidates []forcedEdge) []forcedEdge {
	bySrc := make(map[cfg.NodeHandle]forcedEdge, len(candidates))
	for _, f := range candidates {
		bySrc[f.Src] = f
	}

	removed := make(map[cfg.NodeHandle]bool) // src of removed forced edge
	visited := make(map[cfg.NodeHandle]bool)

	for _, f := range candidates {
		start := f.Src
		if visited[start] {
			continue
		}
		var path []cfg.NodeHandle
		onPath := make(map[cfg.NodeHandle]int)
		cur := start
		for {
			if visited[cur] {
				break
			}
			if idx, ok := onPath[cur]; ok {
				// Found a cycle: path[idx:] plus the edge back to cur.
				breakCycleAt(g, bySrc, path[idx:], removed)
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			next, ok := bySrc[cur]
			if !ok || removed[cur] {
				break
			}
			cur = next.Sink
		}
		for _, n := range path {
			visited[n] = true
		}
	}

	out := make([]forcedEdge, 0, len(candidates))
	for _, f := range candidates {
		if !removed[f.Src] {
			out = append(out, f)
		}
	}
	return out
}

func breakCycleAt(g *cfg.CFG, bySrc map[cfg.NodeHandle]forcedEdge, cycle []cfg.NodeHandle, removed map[cfg.NodeHandle]bool) {
	if len(cycle) == 0 {
		return
	}
	worstSrc := cycle[0]
	worstAddr := g.Nodes[bySrc[cycle[0]].Sink].Addr
	for _, src := range cycle[1:] {
		addr := g.Nodes[bySrc[src].Sink].Addr
		if addr < worstAddr {
			worstAddr = addr
			worstSrc = src
		}
	}
	removed[worstSrc] = true
}
