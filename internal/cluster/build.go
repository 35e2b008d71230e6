package cluster

import "sort"

// Build runs the C6 merge loop over a program's hot chains and the
// aggregated cross-function call edges between them, then returns the
// final totally-ordered node list: hot chains' nodes first (by surviving
// cluster, density descending), followed by every cold chain's nodes
// (by delegate address ascending).
func Build(chains []ChainRef, edges []CallEdge, maxClusterSize uint64) []string {
	if maxClusterSize == 0 {
		maxClusterSize = DefaultMaxClusterSize
	}

	var hot, cold []ChainRef
	for _, c := range chains {
		if c.Hot {
			hot = append(hot, c)
		} else {
			cold = append(cold, c)
		}
	}

	clusterOf := make(map[string]*Cluster, len(hot))
	entryFreq := make(map[string]uint64, len(hot))
	live := make(map[*Cluster]bool)
	nextHandle := 0
	for _, c := range hot {
		size := c.Size
		if size == 0 {
			size = 1
		}
		cl := &Cluster{Handle: nextHandle, Chains: []ChainRef{c}, Size: size, Weight: c.Weight}
		nextHandle++
		clusterOf[c.FuncName] = cl
		entryFreq[c.FuncName] = c.EntryFreq
		live[cl] = true
	}

	edgesInto := make(map[string][]CallEdge)
	for _, e := range edges {
		edgesInto[e.ToFunc] = append(edgesInto[e.ToFunc], e)
	}

	order := append([]ChainRef(nil), hot...)
	sort.SliceStable(order, func(i, j int) bool {
		return density(order[i]) > density(order[j])
	})

	for _, c := range order {
		k := clusterOf[c.FuncName]
		if k == nil || !live[k] {
			continue
		}
		if k.Size > maxClusterSize {
			continue
		}
		p := bestPredecessor(k, c, edgesInto[c.FuncName], clusterOf, entryFreq, maxClusterSize)
		if p == nil {
			continue
		}
		p.Chains = append(p.Chains, k.Chains...)
		p.Size += k.Size
		p.Weight += k.Weight
		for _, kc := range k.Chains {
			clusterOf[kc.FuncName] = p
		}
		delete(live, k)
	}

	var survivors []*Cluster
	for cl := range live {
		survivors = append(survivors, cl)
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].density() != survivors[j].density() {
			return survivors[i].density() > survivors[j].density()
		}
		return survivors[i].delegateAddr() < survivors[j].delegateAddr()
	})

	var out []string
	for _, cl := range survivors {
		for _, c := range cl.Chains {
			out = append(out, c.Nodes...)
		}
	}

	sort.SliceStable(cold, func(i, j int) bool { return cold[i].DelegateAddr < cold[j].DelegateAddr })
	for _, c := range cold {
		out = append(out, c.Nodes...)
	}
	return out
}

func density(c ChainRef) float64 {
	if c.Size == 0 {
		return 0
	}
	return float64(c.Weight) / float64(c.Size)
}

// bestPredecessor finds c's most likely predecessor cluster: among every
// non-return, non-zero-weight call edge into c, skipping self, over-large,
// relatively-cold, and density-degrading predecessors, pick the cluster
// maximizing total edge weight into c, tie-broken by cluster handle.
func bestPredecessor(k *Cluster, c ChainRef, in []CallEdge, clusterOf map[string]*Cluster, entryFreq map[string]uint64, maxClusterSize uint64) *Cluster {
	weights := make(map[*Cluster]uint64)
	for _, e := range in {
		if e.IsReturn || e.Weight == 0 {
			continue
		}
		p := clusterOf[e.FromFunc]
		if p == nil || p == k {
			continue
		}
		if p.Size > maxClusterSize {
			continue
		}
		if 10*e.Weight < entryFreq[c.FuncName] {
			continue // relatively cold
		}
		if densityDegrades(k, p) {
			continue
		}
		weights[p] += e.Weight
	}

	var best *Cluster
	var bestWeight uint64
	for p, w := range weights {
		if best == nil || w > bestWeight || (w == bestWeight && p.Handle < best.Handle) {
			best, bestWeight = p, w
		}
	}
	return best
}

// densityDegrades implements the density-degradation guard: merging k into
// p would degrade p's per-byte density by more than 1/8.
func densityDegrades(k, p *Cluster) bool {
	lhs := 8 * p.Size * (k.Weight * p.Weight)
	rhs := p.Weight * (k.Size + p.Size)
	return lhs < rhs
}
