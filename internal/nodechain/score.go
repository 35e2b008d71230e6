package nodechain

import "propeller/internal/cfg"

// edgeScore computes the ExtTSP contribution of an edge whose source sits
// at srcOffset (size srcSize) and whose sink sits at sinkOffset within some
// candidate chain layout (not necessarily the nodes' original addresses —
// assembly scoring operates on the hypothetical assembled layout).
func edgeScore(kind cfg.EdgeKind, weight uint64, srcOffset, srcSize, sinkOffset uint64, opts Options) float64 {
	if weight == 0 {
		return 0
	}
	if kind.IsReturn() {
		return 0 // "Returns are scaled by 0"
	}

	forward := sinkOffset > srcOffset
	var d int64
	if forward {
		d = int64(sinkOffset) - int64(srcOffset) - int64(srcSize)
	} else {
		d = int64(srcOffset) - int64(sinkOffset)
	}

	if kind.IsCall() {
		shift := int64(srcSize) / 2
		if forward {
			d += shift
		} else {
			d -= shift
		}
	}
	if d < 0 {
		d = 0
	}

	if d == 0 && (kind == cfg.EdgeIntraFunc || kind == cfg.EdgeIntraDynamic) {
		return float64(weight) * opts.WFallthrough
	}
	if forward && uint64(d) < opts.DForward {
		return float64(weight) * opts.WForward * (1 - float64(d)/float64(opts.DForward))
	}
	if !forward && uint64(d) < opts.DBackward {
		return float64(weight) * opts.WBackward * (1 - float64(d)/float64(opts.DBackward))
	}
	return 0
}

// offsets computes each node's cumulative byte offset within a chain,
// in chain order.
func offsets(g *cfg.CFG, nodes []cfg.NodeHandle) map[cfg.NodeHandle]uint64 {
	out := make(map[cfg.NodeHandle]uint64, len(nodes))
	var cur uint64
	for _, n := range nodes {
		out[n] = cur
		cur += g.Nodes[n].Size
	}
	return out
}

// chainScore sums the per-edge score of every intra-func/intra-dynamic
// edge whose endpoints are both within the given node sequence, using
// offsets computed from that sequence's order.
func chainScore(g *cfg.CFG, nodes []cfg.NodeHandle, opts Options) float64 {
	off := offsets(g, nodes)
	inChain := make(map[cfg.NodeHandle]bool, len(nodes))
	for _, n := range nodes {
		inChain[n] = true
	}
	var total float64
	for _, n := range nodes {
		node := &g.Nodes[n]
		for _, eh := range node.Outs {
			e := &g.Edges[eh]
			if !inChain[e.Sink] {
				continue
			}
			total += edgeScore(e.Kind, e.Weight, off[e.Src], g.Nodes[e.Src].Size, off[e.Sink], opts)
		}
	}
	return total
}
