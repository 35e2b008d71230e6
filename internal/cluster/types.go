// Package cluster implements the Propeller C³ chain-clustering pass: it
// merges per-function hot chains into clusters along their most likely
// call-graph predecessor, subject to a size cap and a density-degradation
// guard, then emits the final hot-then-cold node order.
package cluster

// ChainRef is one function's hot (or cold-only) chain as seen by the
// clusterer: an opaque ordered list of symbol names plus the aggregate
// stats C6 needs (size, weight, entry frequency, and a delegate address
// for tie-breaking).
type ChainRef struct {
	FuncName string
	Hot      bool
	Size     uint64
	Weight   uint64
	// EntryFreq is the function's entry-node frequency, used by the
	// "relatively cold" predecessor-edge check.
	EntryFreq uint64
	// DelegateAddr orders same-density clusters/cold chains.
	DelegateAddr uint64
	Nodes        []string
}

// CallEdge is one aggregated cross-function call edge, as produced by
// flattening every CFG's inter-func-call edges ( MapCallOut
// output) across the program.
type CallEdge struct {
	FromFunc string
	ToFunc   string
	Weight   uint64
	IsReturn bool
}

// Cluster is a totally-ordered set of hot chains merged along their most
// likely predecessor.
type Cluster struct {
	Handle int
	Chains []ChainRef
	Size   uint64
	Weight uint64
}

func (c *Cluster) density() float64 {
	if c.Size == 0 {
		return 0
	}
	return float64(c.Weight) / float64(c.Size)
}

func (c *Cluster) delegateAddr() uint64 {
	if len(c.Chains) == 0 {
		return 0
	}
	return c.Chains[0].DelegateAddr
}

// DefaultMaxClusterSize is S_max.
const DefaultMaxClusterSize = 2 * 1024 * 1024
