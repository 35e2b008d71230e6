package nodechain

import "propeller/internal/cfg"

// Builder holds the mutable per-function chain-building state: which
// chain owns each node, and the arena of live chains.
type Builder struct {
	g       *cfg.CFG
	opts    Options
	forced  []forcedEdge
	forcedBySrc map[cfg.NodeHandle]bool

	nodeChain map[cfg.NodeHandle]ChainHandle
	chains    map[ChainHandle]*Chain
	version   map[ChainHandle]int
	next      ChainHandle
}

// NewBuilder initializes one chain per node, contracts mutually-forced
// edges, and returns the ready-to-assemble builder.
func NewBuilder(g *cfg.CFG, opts Options) *Builder {
	b := &Builder{
		g:           g,
		opts:        opts,
		nodeChain:   make(map[cfg.NodeHandle]ChainHandle),
		chains:      make(map[ChainHandle]*Chain),
		version:     make(map[ChainHandle]int),
		forcedBySrc: make(map[cfg.NodeHandle]bool),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		c := &Chain{Handle: b.next, Nodes: []cfg.NodeHandle{n.Handle}, Hot: n.Freq > 0}
		b.recompute(c)
		b.chains[b.next] = c
		b.nodeChain[n.Handle] = b.next
		b.next++
	}

	b.forced = detectMutuallyForced(g)
	for _, f := range b.forced {
		b.forcedBySrc[f.Src] = true
	}
	for _, f := range b.forced {
		aH, bH := b.nodeChain[f.Src], b.nodeChain[f.Sink]
		if aH == bH {
			continue
		}
		a, bb := b.chains[aH], b.chains[bH]
		if a.tail() != f.Src || bb.head() != f.Sink || a.Hot != bb.Hot {
			continue
		}
		b.mergeChains(aH, bH)
	}
	return b
}

func (b *Builder) recompute(c *Chain) {
	var size, weight uint64
	for _, n := range c.Nodes {
		size += b.g.Nodes[n].Size
		weight += b.g.Nodes[n].Freq
	}
	c.Size = size
	c.Weight = weight
}

func (b *Builder) score(c *Chain) float64 { return chainScore(b.g, c.Nodes, b.opts) }

// mergeChains appends bH's nodes after aH's and deletes bH.
func (b *Builder) mergeChains(aH, bH ChainHandle) {
	a, bc := b.chains[aH], b.chains[bH]
	a.Nodes = append(a.Nodes, bc.Nodes...)
	b.recompute(a)
	for _, n := range bc.Nodes {
		b.nodeChain[n] = aH
	}
	delete(b.chains, bH)
	b.version[aH]++
	delete(b.version, bH)
}

// replaceChain installs a freshly assembled node order as aH's content
// (used by Run when applying an Assembly, which may reorder/split both
// input chains).
func (b *Builder) replaceChain(aH ChainHandle, nodes []cfg.NodeHandle, removed ChainHandle) {
	a := b.chains[aH]
	a.Nodes = nodes
	b.recompute(a)
	for _, n := range nodes {
		b.nodeChain[n] = aH
	}
	delete(b.chains, removed)
	b.version[aH]++
	delete(b.version, removed)
}

// Chains returns the live chain set.
func (b *Builder) Chains() map[ChainHandle]*Chain { return b.chains }

// ChainOf returns the chain currently owning node n.
func (b *Builder) ChainOf(n cfg.NodeHandle) ChainHandle { return b.nodeChain[n] }

// neighborChains returns the set of chains connected to c by at least one
// cross-chain intra-func edge in either direction ( "Candidate
// tracking", computed on demand rather than incrementally maintained).
func (b *Builder) neighborChains(c ChainHandle) []ChainHandle {
	seen := make(map[ChainHandle]bool)
	chain := b.chains[c]
	for _, n := range chain.Nodes {
		node := &b.g.Nodes[n]
		for _, eh := range node.Outs {
			e := &b.g.Edges[eh]
			if other := b.nodeChain[e.Sink]; other != c {
				seen[other] = true
			}
		}
		for _, eh := range node.Ins {
			e := &b.g.Edges[eh]
			if other := b.nodeChain[e.Src]; other != c {
				seen[other] = true
			}
		}
	}
	out := make([]ChainHandle, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	return out
}
