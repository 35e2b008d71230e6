package nodechain

import "propeller/internal/cfg"

// PostMergeFallthrough runs a forced (gain-ungated) tail-to-head merge
// wherever a node's original fallthrough target, or any intra-func edge's
// sink, ended up the head of a different chain of the same hot/cold
// status.
func (b *Builder) PostMergeFallthrough() {
	for i := range b.g.Nodes {
		n := cfg.NodeHandle(i)
		ft := b.g.Nodes[n].FTEdge
		if ft < 0 {
			continue
		}
		b.tryTailHeadMerge(n, b.g.Edges[ft].Sink)
	}
	for i := range b.g.Edges {
		e := &b.g.Edges[i]
		if e.Kind != cfg.EdgeIntraFunc && e.Kind != cfg.EdgeIntraDynamic {
			continue
		}
		b.tryTailHeadMerge(e.Src, e.Sink)
	}
}

func (b *Builder) tryTailHeadMerge(src, sink cfg.NodeHandle) {
	cX, cY := b.ChainOf(src), b.ChainOf(sink)
	if cX == cY {
		return
	}
	x, y := b.chains[cX], b.chains[cY]
	if x == nil || y == nil {
		return
	}
	if x.tail() != src || y.head() != sink {
		return
	}
	if x.Hot != y.Hot {
		return // skip hot/cold merges
	}
	b.mergeChains(cX, cY)
}
