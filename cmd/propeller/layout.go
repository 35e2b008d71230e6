package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"propeller/internal/addrmap"
	"propeller/internal/callgraph"
	"propeller/internal/cfg"
	"propeller/internal/cluster"
	"propeller/internal/config"
	"propeller/internal/elf"
	"propeller/internal/layout"
	"propeller/internal/nodechain"
	"propeller/internal/profile"
	"propeller/internal/render"

	lattice_render "github.com/zboralski/lattice/render"
)

// pipelineInputs is everything cmdLayout and cmdDumpCFGs both need: the
// opened ELF object, its selected functions, the built CFGs, and the
// resolved profile aggregate already applied to them.
type pipelineInputs struct {
	ef     *elf.File
	mapper *addrmap.Mapper
	cfgs   map[string]*cfg.CFG
	stats  addrmap.Stats
}

func buildPipelineInputs(libPath, profilePath string) (*pipelineInputs, error) {
	ef, err := elf.Open(libPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", libPath, err)
	}

	maps, err := ef.ReadBBAddrMapSection(0)
	if err != nil {
		ef.Close()
		return nil, fmt.Errorf("read bb-address-map: %w", err)
	}
	if len(maps) == 0 {
		ef.Close()
		return nil, fmt.Errorf("%s carries no bb-address-map section", libPath)
	}

	cands, secNameOf, err := buildCandidates(ef, maps)
	if err != nil {
		ef.Close()
		return nil, fmt.Errorf("build candidates: %w", err)
	}

	mapper, stats, err := addrmap.Build(cands, addrmap.Options{RequireTextSection: true})
	if err != nil {
		ef.Close()
		return nil, fmt.Errorf("select functions: %w", err)
	}

	funcInputs := buildFuncInputs(ef, mapper, secNameOf)
	cfgs := cfg.BuildAll([]cfg.ObjectInput{{Ordinal: 0, Functions: funcInputs}})

	if profilePath != "" {
		if err := applyProfile(profilePath, libPath, mapper, cfgs); err != nil {
			ef.Close()
			return nil, fmt.Errorf("apply profile: %w", err)
		}
	}
	for _, g := range cfgs {
		g.ComputeFrequencies()
	}

	return &pipelineInputs{ef: ef, mapper: mapper, cfgs: cfgs, stats: stats}, nil
}

// applyProfile parses the legacy textual profile and replays every branch
// and fallthrough record onto the matching function's CFG via MapBranch,
// MapCallOut, or MarkPath, resolving each record's symbol-table ordinal to
// a (function, flat bb index) pair first.
func applyProfile(path, libPath string, mapper *addrmap.Mapper, cfgs map[string]*cfg.CFG) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := profile.ParseLegacyText(f, filepath.Base(libPath))
	if errors.Is(err, profile.ErrProfileMismatch) {
		return nil
	}
	if err != nil {
		return err
	}
	st, err := profile.BuildSymbolTable(parsed)
	if err != nil {
		return err
	}
	ordinals := resolveOrdinals(st, mapper)

	funcNameByIdx := make(map[int]string, len(mapper.Functions))
	for idx, fn := range mapper.Functions {
		funcNameByIdx[idx] = fn.Name
	}

	for _, b := range parsed.Branches {
		from, ok1 := ordinals[b.From]
		to, ok2 := ordinals[b.To]
		if !ok1 || !ok2 {
			continue
		}
		fromName := funcNameByIdx[from.FuncIndex]
		g := cfgs[fromName]
		if g == nil {
			continue
		}
		isCall := b.Tag == profile.TagCall
		isReturn := b.Tag == profile.TagReturn
		if from.FuncIndex == to.FuncIndex {
			g.MapBranch(cfg.NodeHandle(from.FlatIdx), cfg.NodeHandle(to.FlatIdx), b.Count, isCall, isReturn)
			continue
		}
		toFn := mapper.Functions[to.FuncIndex]
		sinkAddr := toFn.EntryAddress()
		toAddr := toFn.Addr(mustFromFlat(toFn, to.FlatIdx))
		g.MapCallOut(cfg.NodeHandle(from.FlatIdx), toFn.Name, to.FlatIdx == 0, sinkAddr, toAddr, b.Count, isCall)
	}

	for _, ft := range parsed.Fallthroughs {
		from, ok1 := ordinals[ft.From]
		to, ok2 := ordinals[ft.To]
		if !ok1 || !ok2 || from.FuncIndex != to.FuncIndex {
			continue
		}
		g := cfgs[funcNameByIdx[from.FuncIndex]]
		if g == nil {
			continue
		}
		g.MarkPath(cfg.NodeHandle(from.FlatIdx), cfg.NodeHandle(to.FlatIdx), ft.Count)
	}
	return nil
}

func mustFromFlat(f *addrmap.Function, flatIdx int) addrmap.BbHandle {
	h, _ := f.FromFlat(addrmap.FlatBbHandle{FunctionIndex: f.Index, FlatBBIndex: flatIdx})
	return h
}

func registerCommonFlags(fs *flag.FlagSet) (*string, *string, *config.Options) {
	lib := fs.String("lib", "", "path to the input ELF object/binary")
	prof := fs.String("profile", "", "path to the legacy textual profile")
	opts := new(config.Options)
	*opts = config.Default()
	opts.Register(fs)
	return lib, prof, opts
}

func cmdLayout(args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	lib, prof, opts := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.Finish(); err != nil {
		return err
	}
	if *lib == "" {
		return fmt.Errorf("--lib is required")
	}

	in, err := buildPipelineInputs(*lib, *prof)
	if err != nil {
		return err
	}
	defer in.ef.Close()

	chainOpts := nodechain.DefaultOptions()
	chainOpts.WFallthrough = opts.FallthroughWeight
	chainOpts.WForward = opts.ForwardJumpWeight
	chainOpts.WBackward = opts.BackwardJumpWeight
	chainOpts.DForward = opts.ForwardJumpDistance
	chainOpts.DBackward = opts.BackwardJumpDistance
	chainOpts.SplitThreshold = opts.ChainSplitThreshold
	chainOpts.SplitFuncs = opts.SplitFuncs

	names := sortedFuncNames(in.cfgs)

	var chainRefs []cluster.ChainRef
	var callEdges []cluster.CallEdge
	nameToFunc := make(map[string]string)
	for _, name := range names {
		g := in.cfgs[name]
		var refs []cluster.ChainRef
		if !opts.ReorderBlocks {
			refs = identityChain(g)
		} else {
			res := nodechain.Build(g, chainOpts)
			refs = append(refs, toChainRef(g, res.Hot, true))
			if res.Cold != nil {
				refs = append(refs, toChainRef(g, res.Cold, false))
			}
		}
		for _, c := range refs {
			for _, n := range c.Nodes {
				nameToFunc[n] = c.FuncName
			}
		}
		chainRefs = append(chainRefs, refs...)
		callEdges = append(callEdges, crossFuncEdges(g)...)
	}

	var order []string
	if opts.ReorderFuncs {
		order = cluster.Build(chainRefs, callEdges, cluster.DefaultMaxClusterSize)
	} else {
		for _, c := range chainRefs {
			order = append(order, c.Nodes...)
		}
	}

	entries := make([]layout.BlockEntry, 0, len(order))
	hotSet := make(map[string]bool)
	for _, c := range chainRefs {
		if !c.Hot {
			continue
		}
		for _, n := range c.Nodes {
			hotSet[n] = true
		}
	}
	for _, name := range order {
		entries = append(entries, layout.BlockEntry{
			FuncName:     nameToFunc[name],
			Name:         name,
			Hot:          hotSet[name],
			IsFuncSymbol: isFuncSymbolName(in.mapper, name),
		})
	}
	res := layout.Build(entries)

	if opts.DumpSymbolOrder != "" {
		if err := writeSymbolOrder(opts.DumpSymbolOrder, res.Order); err != nil {
			return err
		}
	} else {
		for _, n := range res.Order {
			fmt.Println(n)
		}
	}

	if opts.PrintStats {
		fmt.Fprintf(os.Stderr, "functions selected:  %d\n", in.stats.FunctionsSelected)
		fmt.Fprintf(os.Stderr, "duplicate symbols:   %d\n", in.stats.DuplicateSymbols)
		fmt.Fprintf(os.Stderr, "dropped collisions:  %d\n", in.stats.DroppedCollisions)
		fmt.Fprintf(os.Stderr, "symbols emitted:     %d\n", len(res.Order))
	}
	return nil
}

// identityChain builds a single non-reordered chain per function from its
// CFG nodes in original address order, used when -propeller-reorder-blocks
// is disabled.
func identityChain(g *cfg.CFG) []cluster.ChainRef {
	var size, weight uint64
	names := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		size += n.Size
		weight += n.Freq
		names[i] = bbSymbolName(g.FuncName, i)
	}
	if len(names) > 0 {
		names[0] = g.FuncName
	}
	var entryFreq uint64
	if len(g.Nodes) > 0 {
		entryFreq = g.Nodes[0].Freq
	}
	return []cluster.ChainRef{{
		FuncName: g.FuncName, Hot: g.Hot(), Size: size, Weight: weight,
		EntryFreq: entryFreq, DelegateAddr: g.Nodes[0].Addr, Nodes: names,
	}}
}

// toChainRef converts a nodechain.Chain into a cluster.ChainRef, naming
// the function's entry node with the function symbol and every other node
// with its synthesized legacy bb-symbol name.
func toChainRef(g *cfg.CFG, c *nodechain.Chain, hot bool) cluster.ChainRef {
	names := make([]string, len(c.Nodes))
	for i, h := range c.Nodes {
		if h == 0 {
			names[i] = g.FuncName
		} else {
			names[i] = bbSymbolName(g.FuncName, int(h))
		}
	}
	var entryFreq uint64
	if len(g.Nodes) > 0 {
		entryFreq = g.Nodes[0].Freq
	}
	return cluster.ChainRef{
		FuncName: g.FuncName, Hot: hot, Size: c.Size, Weight: c.Weight,
		EntryFreq: entryFreq, DelegateAddr: g.Nodes[c.Nodes[0]].Addr, Nodes: names,
	}
}

// bbSymbolName synthesizes a legacy-style bb-symbol name for a block that
// has no symbol of its own: funcName.<unary bb index>. The prefix is the
// function's name, not the numeric function ordinal that
// ParseLegacyText's decodeBBSymbolName expects on the way in.
func bbSymbolName(funcName string, bbIndex int) string {
	ones := make([]byte, bbIndex)
	for i := range ones {
		ones[i] = '1'
	}
	return fmt.Sprintf("%s.%s", funcName, string(ones))
}

func crossFuncEdges(g *cfg.CFG) []cluster.CallEdge {
	var out []cluster.CallEdge
	for _, e := range g.Edges {
		if !e.CrossFunc {
			continue
		}
		out = append(out, cluster.CallEdge{
			FromFunc: g.FuncName, ToFunc: e.SinkFunc, Weight: e.Weight, IsReturn: e.Kind.IsReturn(),
		})
	}
	return out
}

func isFuncSymbolName(mapper *addrmap.Mapper, name string) bool {
	for _, f := range mapper.Functions {
		if f.Name == name {
			return true
		}
	}
	return false
}

func sortedFuncNames(cfgs map[string]*cfg.CFG) []string {
	names := make([]string, 0, len(cfgs))
	for n := range cfgs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func writeSymbolOrder(path string, order []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, n := range order {
		if _, err := fmt.Fprintln(f, n); err != nil {
			return err
		}
	}
	return nil
}

// cmdDumpCFGs runs the same pipeline build as cmdLayout but, instead of
// emitting a symbol order, writes one .dot file per function named in
// -propeller-dump-cfgs under --out, plus the whole-program call graph.
func cmdDumpCFGs(args []string) error {
	fs := flag.NewFlagSet("dump-cfgs", flag.ExitOnError)
	lib, prof, opts := registerCommonFlags(fs)
	outDir := fs.String("out", "", "directory to write .dot files into")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.Finish(); err != nil {
		return err
	}
	if *lib == "" || *outDir == "" {
		return fmt.Errorf("--lib and --out are required")
	}

	in, err := buildPipelineInputs(*lib, *prof)
	if err != nil {
		return err
	}
	defer in.ef.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	if len(opts.DumpCFGs) > 0 {
		filter := render.NewDumpFilter(opts.DumpCFGs)
		dots := render.DumpCFGs(in.cfgs, filter)
		for name, dot := range dots {
			path := filepath.Join(*outDir, name+".dot")
			if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "wrote %d CFG dot file(s) to %s\n", len(dots), *outDir)
	}

	names := sortedFuncNames(in.cfgs)
	var edges []cluster.CallEdge
	for _, name := range names {
		edges = append(edges, crossFuncEdges(in.cfgs[name])...)
	}
	g := callgraph.Build(names, edges)
	dot := lattice_render.DOT(g, "propeller call graph")
	if err := os.WriteFile(filepath.Join(*outDir, "callgraph.dot"), []byte(dot), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote callgraph.dot to %s\n", *outDir)
	return nil
}
