package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "layout":
		err = cmdLayout(os.Args[2:])
	case "dump-cfgs":
		err = cmdDumpCFGs(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `propeller — post-link profile-guided binary code-layout optimizer

Usage:
  propeller layout     --lib <path> --profile <path> [flags]   Run the full pipeline, print/write the final order
  propeller dump-cfgs  --lib <path> --profile <path> --out <dir> --propeller-dump-cfgs <names> Dump per-function CFGs as DOT

Flags (layout, dump-cfgs):
  --lib <path>          Path to the input ELF object/binary
  --profile <path>      Path to the legacy textual profile
  --out <dir>           Directory to write .dot dumps into (dump-cfgs only)

See -propeller-* flags for the tuning knobs (reorder
funcs/blocks, split-funcs, chain-split-threshold, jump distances/weights,
dump-cfgs, dump-symbol-order, print-stats).
`)
}
