package cfg

// outEdgesAll returns every outgoing edge (plain branches and calls) from
// a node, in no particular combined order.
func (g *CFG) outEdgesAll(n NodeHandle) []EdgeHandle {
	node := g.node(n)
	all := make([]EdgeHandle, 0, len(node.Outs)+len(node.CallOuts))
	all = append(all, node.Outs...)
	all = append(all, node.CallOuts...)
	return all
}

// MapBranch applies an intra-function counter update. It reuses a
// matching existing out-edge when one exists, or creates an
// intra-dynamic (or rsc/rsr, for call/return) edge.
func (g *CFG) MapBranch(from, to NodeHandle, cnt uint64, isCall, isReturn bool) {
	matches := func(k EdgeKind) bool {
		switch {
		case isCall:
			return k == EdgeIntraRecursiveSelfCall
		case isReturn:
			return k == EdgeIntraRecursiveSelfReturn
		default:
			return k == EdgeIntraFunc || k == EdgeIntraDynamic
		}
	}
	for _, eh := range g.outEdgesAll(from) {
		e := g.edge(eh)
		if e.Sink == to && matches(e.Kind) {
			e.Weight += cnt
			return
		}
	}
	kind := EdgeIntraDynamic
	switch {
	case isCall:
		kind = EdgeIntraRecursiveSelfCall
	case isReturn:
		kind = EdgeIntraRecursiveSelfReturn
	}
	eh := g.addEdge(from, to, kind)
	g.edge(eh).Weight += cnt
}

// MapCallOut applies a cross-function counter update. sinkFuncName
// identifies the target function; sinkIsEntry and
// sinkAddr describe its entry block so the inter-func-call-vs-return
// classification rule ("to is the callee entry and to_addr == addr(to)")
// can be evaluated without holding a handle into the other function's
// arena.
func (g *CFG) MapCallOut(from NodeHandle, sinkFuncName string, sinkIsEntry bool, sinkAddr, toAddr, cnt uint64, isCall bool) {
	kind := EdgeInterFuncReturn
	if isCall || (sinkIsEntry && toAddr == sinkAddr) {
		kind = EdgeInterFuncCall
	}
	for _, eh := range g.outEdgesAll(from) {
		e := g.edge(eh)
		if e.CrossFunc && e.SinkFunc == sinkFuncName && e.Kind == kind {
			e.Weight += cnt
			return
		}
	}
	h := EdgeHandle(len(g.Edges))
	g.Edges = append(g.Edges, Edge{
		Handle: h, Src: from, Sink: -1, Kind: kind, Weight: cnt,
		CrossFunc: true, SinkFunc: sinkFuncName,
	})
	s := g.node(from)
	if kind.IsCall() {
		s.CallOuts = append(s.CallOuts, h)
	} else {
		s.Outs = append(s.Outs, h)
	}
}

// MarkPath walks fallthrough edges forward from `from`, adding cnt to each
// ft_edge's weight, until reaching `to`.
// Returns false if the fallthrough chain runs out before reaching `to`;
// edges already walked keep their added weight regardless.
func (g *CFG) MarkPath(from, to NodeHandle, cnt uint64) bool {
	cur := from
	for cur != to {
		n := g.node(cur)
		if n.FTEdge == noEdge {
			return false
		}
		e := g.edge(n.FTEdge)
		e.Weight += cnt
		cur = e.Sink
	}
	return true
}

// ComputeFrequencies sets each node's freq to the max of its total
// out/in/call-in weight and its largest single call-out weight, with the
// entry node floored to 1 if any node in the function is hot but the
// entry's computed freq came out 0.
func (g *CFG) ComputeFrequencies() {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		var outSum, inSum, callInSum, maxCallOut uint64
		for _, eh := range n.Outs {
			outSum += g.edge(eh).Weight
		}
		for _, eh := range n.Ins {
			inSum += g.edge(eh).Weight
		}
		for _, eh := range n.CallIns {
			callInSum += g.edge(eh).Weight
		}
		for _, eh := range n.CallOuts {
			if w := g.edge(eh).Weight; w > maxCallOut {
				maxCallOut = w
			}
		}
		n.Freq = max4(outSum, inSum, callInSum, maxCallOut)
	}
	if len(g.Nodes) == 0 {
		return
	}
	anyHot := false
	for i := 1; i < len(g.Nodes); i++ {
		if g.Nodes[i].Freq > 0 {
			anyHot = true
			break
		}
	}
	if anyHot && g.Nodes[0].Freq == 0 {
		g.Nodes[0].Freq = 1
	}
}

// Hot reports whether the CFG's entry node has non-zero frequency.
func (g *CFG) Hot() bool {
	return len(g.Nodes) > 0 && g.Nodes[0].Freq > 0
}

func max4(a, b, c, d uint64) uint64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	if d > m {
		m = d
	}
	return m
}
