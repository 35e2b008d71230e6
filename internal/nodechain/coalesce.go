package nodechain

import (
	"propeller/internal/cfg"
	"sort"
)

// delegateAddr is the chain's ordering key: its first node's address.
func (b *Builder) delegateAddr(c *Chain) uint64 { return b.g.Nodes[c.head()].Addr }

// Coalesce sorts the surviving chains (entry chain first, then non-zero
// frequency before zero, then density descending, tie-broken by delegate
// address), then merges consecutive chains into a single hot chain. When
// splitFuncs is set, a new chain starts at the first non-zero/zero
// frequency transition, producing at most two chains (hot, cold).
func (b *Builder) Coalesce() (hot, cold *Chain) {
	entryChain := b.ChainOf(0)

	chains := make([]*Chain, 0, len(b.chains))
	for _, c := range b.chains {
		chains = append(chains, c)
	}
	sort.SliceStable(chains, func(i, j int) bool {
		ci, cj := chains[i], chains[j]
		iEntry := ci.Handle == entryChain
		jEntry := cj.Handle == entryChain
		if iEntry != jEntry {
			return iEntry
		}
		iHot := ci.Weight > 0
		jHot := cj.Weight > 0
		if iHot != jHot {
			return iHot
		}
		if ci.Density() != cj.Density() {
			return ci.Density() > cj.Density()
		}
		return b.delegateAddr(ci) < b.delegateAddr(cj)
	})

	var hotNodes, coldNodes []cfg.NodeHandle
	inHot := true
	for _, c := range chains {
		if b.opts.SplitFuncs && inHot && c.Weight == 0 && len(hotNodes) > 0 {
			inHot = false
		}
		if inHot {
			hotNodes = append(hotNodes, c.Nodes...)
		} else {
			coldNodes = append(coldNodes, c.Nodes...)
		}
	}
	if !b.opts.SplitFuncs {
		hotNodes = append(hotNodes, coldNodes...)
		coldNodes = nil
	}

	hot = &Chain{Handle: -1, Nodes: hotNodes, Hot: true}
	b.recompute(hot)
	if len(coldNodes) > 0 {
		cold = &Chain{Handle: -2, Nodes: coldNodes, Hot: false}
		b.recompute(cold)
	}
	return hot, cold
}
