// Package config parses Propeller's command-line options into an Options
// value the rest of the pipeline consumes directly.
package config

import (
	"flag"
	"fmt"
)

// Options mirrors every propeller-* flag.
type Options struct {
	ReorderFuncs  bool
	ReorderBlocks bool
	SplitFuncs    bool
	ReorderIP     bool

	ChainSplitThreshold uint64

	ForwardJumpDistance  uint64
	BackwardJumpDistance uint64
	FallthroughWeight    float64
	ForwardJumpWeight    float64
	BackwardJumpWeight   float64

	// DumpCFGs is the propeller-dump-cfgs function-name allow list; empty
	// means "dump nothing" (the flag must be set explicitly to opt in).
	DumpCFGs []string

	DumpSymbolOrder string
	PrintStats      bool

	// dumpCFGsFlag holds the raw propeller-dump-cfgs flag value until
	// Finish splits it into DumpCFGs.
	dumpCFGsFlag string
}

// Default returns the documented defaults: a 1024-byte chain split
// threshold, 1024/640-byte forward/backward jump distances, and ExtTSP's
// 1.0/0.1/0.1 edge weights.
func Default() Options {
	return Options{
		ReorderFuncs:  true,
		ReorderBlocks: true,
		SplitFuncs:    false,
		ReorderIP:     false,

		ChainSplitThreshold: 1024,

		ForwardJumpDistance:  1024,
		BackwardJumpDistance: 640,
		FallthroughWeight:    1.0,
		ForwardJumpWeight:    0.1,
		BackwardJumpWeight:   0.1,
	}
}

// Register binds every propeller-* flag to fs, defaulting to o's current
// field values. Callers that need additional flags (e.g. cmd/propeller's
// --lib/--profile/--out) can register those on the same FlagSet before
// calling fs.Parse, so everything parses in one pass.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.BoolVar(&o.ReorderFuncs, "propeller-reorder-funcs", o.ReorderFuncs, "enable function reordering (C6)")
	fs.BoolVar(&o.ReorderBlocks, "propeller-reorder-blocks", o.ReorderBlocks, "enable basic-block reordering (C5)")
	fs.BoolVar(&o.SplitFuncs, "propeller-split-funcs", o.SplitFuncs, "split function bodies into hot/cold sections")
	fs.BoolVar(&o.ReorderIP, "propeller-reorder-ip", o.ReorderIP, "parsed and stored only; no pipeline stage reads it (no function-transition splitting is performed)")

	fs.Uint64Var(&o.ChainSplitThreshold, "propeller-chain-split-threshold", o.ChainSplitThreshold, "bytes; only chains at or below this size are considered for splitting")

	fs.Uint64Var(&o.ForwardJumpDistance, "propeller-forward-jump-distance", o.ForwardJumpDistance, "bytes; ExtTSP forward-jump distance threshold")
	fs.Uint64Var(&o.BackwardJumpDistance, "propeller-backward-jump-distance", o.BackwardJumpDistance, "bytes; ExtTSP backward-jump distance threshold")
	fs.Float64Var(&o.FallthroughWeight, "fallthrough-weight", o.FallthroughWeight, "ExtTSP fallthrough edge weight")
	fs.Float64Var(&o.ForwardJumpWeight, "forward-jump-weight", o.ForwardJumpWeight, "ExtTSP forward-jump edge weight")
	fs.Float64Var(&o.BackwardJumpWeight, "backward-jump-weight", o.BackwardJumpWeight, "ExtTSP backward-jump edge weight")

	fs.StringVar(&o.dumpCFGsFlag, "propeller-dump-cfgs", "", "comma-separated function names to dump as DOT; empty dumps none")
	fs.StringVar(&o.DumpSymbolOrder, "propeller-dump-symbol-order", "", "path to write the final symbol order to")
	fs.BoolVar(&o.PrintStats, "propeller-print-stats", false, "print layout statistics to stderr")
}

// Finish must be called after fs.Parse once Register has bound o's flags:
// it materializes DumpCFGs from the raw flag value and validates o.
func (o *Options) Finish() error {
	o.DumpCFGs = splitNonEmpty(o.dumpCFGsFlag)
	return o.validate()
}

// Parse parses args (typically os.Args[1:]) against the documented
// defaults and returns the resulting Options.
func Parse(name string, args []string) (Options, error) {
	opts := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	opts.Register(fs)
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if err := opts.Finish(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o Options) validate() error {
	if o.ChainSplitThreshold == 0 {
		return fmt.Errorf("propeller-chain-split-threshold must be > 0")
	}
	if o.ForwardJumpDistance == 0 || o.BackwardJumpDistance == 0 {
		return fmt.Errorf("jump distance thresholds must be > 0")
	}
	return nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
