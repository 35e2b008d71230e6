package nodechain

import "container/heap"

// assemblyQueue is a max-heap over *Assembly ordered by (Gain desc, then
// the (X,Y) pair for stable iteration on equal keys),
// "Priority queue" / "stable iteration on equal keys".
type assemblyQueue []*Assembly

func (q assemblyQueue) Len() int { return len(q) }
func (q assemblyQueue) Less(i, j int) bool {
	if q[i].Gain != q[j].Gain {
		return q[i].Gain > q[j].Gain
	}
	if q[i].X != q[j].X {
		return q[i].X < q[j].X
	}
	return q[i].Y < q[j].Y
}
func (q assemblyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *assemblyQueue) Push(x any)   { *q = append(*q, x.(*Assembly)) }
func (q *assemblyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Run executes the greedy ExtTSP merge loop:
// repeatedly pop the best valid assembly, apply the merge, and re-score
// assemblies touching the merged chain against its neighbours. Stale
// entries (referring to a chain already consumed by an earlier merge, or
// whose endpoint has since changed) are invalidated lazily via the
// version counters stamped onto each Assembly at creation time.
func (b *Builder) Run() {
	q := &assemblyQueue{}
	heap.Init(q)

	seeded := make(map[[2]ChainHandle]bool)
	seedPair := func(a, c ChainHandle) {
		for _, asm := range b.candidateAssemblies(a, c) {
			heap.Push(q, asm)
		}
	}
	for c := range b.chains {
		for _, nb := range b.neighborChains(c) {
			key := [2]ChainHandle{c, nb}
			if seeded[key] {
				continue
			}
			seeded[key] = true
			seedPair(c, nb)
		}
	}

	for q.Len() > 0 {
		asm := heap.Pop(q).(*Assembly)
		if !b.isLive(asm) {
			continue
		}

		b.replaceChain(asm.X, asm.Nodes, asm.Y)

		for _, nb := range b.neighborChains(asm.X) {
			for _, a := range b.candidateAssemblies(asm.X, nb) {
				heap.Push(q, a)
			}
			for _, a := range b.candidateAssemblies(nb, asm.X) {
				heap.Push(q, a)
			}
		}
	}
}

func (b *Builder) isLive(a *Assembly) bool {
	if a.X == a.Y {
		return false
	}
	if _, ok := b.chains[a.X]; !ok {
		return false
	}
	if _, ok := b.chains[a.Y]; !ok {
		return false
	}
	return b.version[a.X] == a.xVersion && b.version[a.Y] == a.yVersion
}
