// Package nodechain implements the Propeller ExtTSP node-chain builder
//: it greedily assembles a function's basic blocks into
// chains that maximize the ExtTSP layout score, then coalesces the
// surviving chains into at most one hot and one cold chain per function.
package nodechain

import "propeller/internal/cfg"

// ChainHandle indexes the builder's chain arena.
type ChainHandle int

const noChain ChainHandle = -1

// Chain is an ordered sequence of a single function's CFG nodes that will
// be laid out contiguously.
type Chain struct {
	Handle ChainHandle
	Nodes  []cfg.NodeHandle
	Hot    bool

	// Size and Weight are recomputed whenever the chain's node list
	// changes; Density = Weight / Size is the coalescing sort key.
	Size   uint64
	Weight uint64
}

func (c *Chain) Density() float64 {
	if c.Size == 0 {
		return 0
	}
	return float64(c.Weight) / float64(c.Size)
}

func (c *Chain) head() cfg.NodeHandle { return c.Nodes[0] }
func (c *Chain) tail() cfg.NodeHandle { return c.Nodes[len(c.Nodes)-1] }

// Options configures ExtTSP scoring and chain-splitting thresholds.
type Options struct {
	WFallthrough float64
	WForward     float64
	WBackward    float64
	DForward     uint64
	DBackward    uint64

	// SplitThreshold is S_split: a chain may only be split during
	// assembly when its size is at most this many bytes.
	SplitThreshold uint64

	// SplitFuncs enables the coalescing-time hot/cold split producing at
	// most two chains per function.
	SplitFuncs bool
}

// DefaultOptions returns the documented default ExtTSP parameters.
func DefaultOptions() Options {
	return Options{
		WFallthrough:   1.0,
		WForward:       0.1,
		WBackward:      0.1,
		DForward:       1024,
		DBackward:      640,
		SplitThreshold: 1024,
	}
}
