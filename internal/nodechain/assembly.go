package nodechain

import "propeller/internal/cfg"

// Assembly describes one candidate merge of chain X into chain Y: X may be
// split at suffix-size s into prefix X1 ([0, len(X)-s)) and suffix X2
// ([len(X)-s, len(X))), then recombined with Y in one of four orderings.
type Assembly struct {
	X, Y ChainHandle
	// S is the split suffix size; 0 means no split (order is always X Y).
	S     int
	Order int // 0: X2 X1 Y, 1: X1 Y X2, 2: X2 Y X1, 3: Y X2 X1

	Nodes []cfg.NodeHandle
	Score float64
	Gain  float64

	xVersion, yVersion int
}

func assembledNodes(x, y *Chain, s, order int) []cfg.NodeHandle {
	n := len(x.Nodes)
	x1 := x.Nodes[:n-s]
	x2 := x.Nodes[n-s:]
	cat := func(parts ...[]cfg.NodeHandle) []cfg.NodeHandle {
		out := make([]cfg.NodeHandle, 0, len(x.Nodes)+len(y.Nodes))
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}
	switch order {
	case 0:
		return cat(x2, x1, y.Nodes)
	case 1:
		return cat(x1, y.Nodes, x2)
	case 2:
		return cat(x2, y.Nodes, x1)
	default:
		return cat(y.Nodes, x2, x1)
	}
}

func isValidAssembly(g *cfg.CFG, nodes []cfg.NodeHandle, x, y *Chain) bool {
	if len(nodes) == 0 {
		return false
	}
	if g.Nodes[nodes[0]].IsEntry {
		return true
	}
	xHeadEntry := g.Nodes[x.head()].IsEntry
	yHeadEntry := g.Nodes[y.head()].IsEntry
	return !xHeadEntry && !yHeadEntry
}

// candidateAssemblies enumerates every valid, positive-gain assembly for
// the ordered pair (xH, yH).
func (b *Builder) candidateAssemblies(xH, yH ChainHandle) []*Assembly {
	x, y := b.chains[xH], b.chains[yH]
	if x == nil || y == nil || xH == yH {
		return nil
	}
	baseline := b.score(x) + b.score(y)

	var out []*Assembly
	tryOne := func(s, order int) {
		nodes := assembledNodes(x, y, s, order)
		if !isValidAssembly(b.g, nodes, x, y) {
			return
		}
		sc := chainScore(b.g, nodes, b.opts)
		gain := sc - baseline
		if gain <= 0 {
			return
		}
		out = append(out, &Assembly{
			X: xH, Y: yH, S: s, Order: order,
			Nodes: nodes, Score: sc, Gain: gain,
			xVersion: b.version[xH], yVersion: b.version[yH],
		})
	}

	tryOne(0, 1) // no split: X Y

	if x.Size <= b.opts.SplitThreshold {
		for s := 1; s < len(x.Nodes); s++ {
			// Node immediately preceding the slice boundary is
			// x.Nodes[len(x.Nodes)-s-1]; skip if it is the source of a
			// mutually-forced edge: splits are never allowed across a
			// mutually-forced-edge boundary.
			boundaryNode := x.Nodes[len(x.Nodes)-s-1]
			if b.forcedBySrc[boundaryNode] {
				continue
			}
			for order := 0; order < 4; order++ {
				tryOne(s, order)
			}
		}
	}
	return out
}
