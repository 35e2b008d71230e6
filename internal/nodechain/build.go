package nodechain

import "propeller/internal/cfg"

// Result is one function's node-chain-builder output: its hot chain, and
// an optional cold chain when split-funcs is enabled.
type Result struct {
	FuncName string
	Hot      *Chain
	Cold     *Chain
}

// Build runs the full per-function node-chain pipeline: initialization
// (with mutually-forced contraction), greedy ExtTSP assembly, the
// post-merge fallthrough pass, and coalescing.
func Build(g *cfg.CFG, opts Options) Result {
	b := NewBuilder(g, opts)
	b.Run()
	b.PostMergeFallthrough()
	hot, cold := b.Coalesce()
	return Result{FuncName: g.FuncName, Hot: hot, Cold: cold}
}
