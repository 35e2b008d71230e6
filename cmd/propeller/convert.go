package main

import (
	selfelf "debug/elf"

	"propeller/internal/addrmap"
	"propeller/internal/cfg"
	"propeller/internal/elf"
	"propeller/internal/profile"
)

// buildCandidates turns one object's decoded bb-address-map plus its
// symbol table into the addrmap.Candidate list the C1 selection policy
// consumes. secNameOf records each function's real (un-normalized)
// section name, keyed by function index, for later relocation lookups.
func buildCandidates(ef *elf.File, maps []elf.FuncBBAddrMap) ([]addrmap.Candidate, map[int]string, error) {
	byAddr, err := ef.FuncSymbolsByAddress()
	if err != nil {
		return nil, nil, err
	}

	cands := make([]addrmap.Candidate, 0, len(maps))
	secNameOf := make(map[int]string, len(maps))
	for i, fm := range maps {
		syms := byAddr[fm.FuncAddress]
		var aliases []string
		sectionName := ""
		rawSection := ""
		var size uint64
		for _, s := range syms {
			aliases = append(aliases, s.Name)
			if sectionName == "" {
				sectionName = s.SectionName
			}
			if s.Size > size {
				size = s.Size
			}
		}
		if len(syms) > 0 {
			rawSection = rawSectionName(ef, syms[0].SectionIdx)
		}
		cands = append(cands, addrmap.Candidate{
			FuncIndex:   i,
			Ranges:      convertRanges(fm.Ranges),
			Aliases:     aliases,
			Size:        size,
			SectionName: sectionName,
		})
		secNameOf[i] = rawSection
	}
	return cands, secNameOf, nil
}

func rawSectionName(ef *elf.File, idx int) string {
	if idx < 0 || idx >= len(ef.ELF.Sections) {
		return ""
	}
	return ef.ELF.Sections[idx].Name
}

func convertRanges(in []elf.BBRange) []addrmap.Range {
	out := make([]addrmap.Range, len(in))
	for i, r := range in {
		entries := make([]addrmap.BBEntry, len(r.Entries))
		for j, e := range r.Entries {
			entries[j] = addrmap.BBEntry{
				ID:     e.ID,
				Offset: e.Offset,
				Size:   e.Size,
				Meta: addrmap.BBMeta{
					HasReturn:         e.HasReturn,
					HasTailCall:       e.HasTailCall,
					IsEHPad:           e.IsEHPad,
					CanFallThrough:    e.CanFallThrough,
					HasIndirectBranch: e.HasIndirectBranch,
				},
			}
		}
		out[i] = addrmap.Range{BaseAddress: r.BaseAddress, Entries: entries}
	}
	return out
}

// buildFuncInputs assembles one cfg.FuncBuildInput per selected function,
// in the same per-function bb ordering addrmap.Mapper.BBHandles produces
// (ascending address within the function), so that cfg.NodeHandle(i) and
// addrmap.FlatBbHandle{FuncIndex, i} always name the same block.
func buildFuncInputs(ef *elf.File, mapper *addrmap.Mapper, secNameOf map[int]string) []cfg.FuncBuildInput {
	var out []cfg.FuncBuildInput
	for _, idx := range mapper.SelectedFunctions {
		f := mapper.Functions[idx]
		var addrs, sizes []uint64
		for ri, rng := range f.Ranges {
			for bi := range rng.Entries {
				h := addrmap.BbHandle{FunctionIndex: idx, RangeIndex: ri, BBIndex: bi}
				addrs = append(addrs, f.Addr(h))
				sizes = append(sizes, f.Entry(h).Size)
			}
		}
		relocs := resolveRelocs(ef, mapper, idx, secNameOf[idx])
		out = append(out, cfg.FuncBuildInput{
			Name:       f.Name,
			Size:       f.Size,
			BlockAddrs: addrs,
			BlockSizes: sizes,
			Relocs:     relocs,
		})
	}
	return out
}

// resolveRelocs reads the RELA section for fn's own bb section (when one
// exists — a fully-linked binary with no pending relocations yields none,
// and every edge is then discovered from the profile's branch records
// instead) and classifies each entry as a same-function intra edge or a
// self-recursive call via the address mapper.
//
// Target addresses are computed as symbol.Value + addend, which only
// shares the bb-address map's numbering when the relocation's symbol is
// defined within the same address space the map uses (true for a single
// fully-linked object, and for a still-unlinked object built with
// function-level sections where the target is a local symbol in that same
// section). Relocations that don't resolve to a known block via
// Mapper.Find are skipped rather than guessed.
func resolveRelocs(ef *elf.File, mapper *addrmap.Mapper, funcIdx int, sectionName string) []cfg.Reloc {
	if sectionName == "" {
		return nil
	}
	raw, err := ef.SectionRelocations(sectionName)
	if err != nil || len(raw) == 0 {
		return nil
	}
	syms, err := ef.ELF.Symbols()
	if err != nil {
		return nil
	}

	f := mapper.Functions[funcIdx]
	var out []cfg.Reloc
	for _, r := range raw {
		srcH, ok := mapper.Find(r.Offset, addrmap.DirFrom)
		if !ok || srcH.FunctionIndex != funcIdx {
			continue
		}
		srcFlat, ok := f.ToFlat(srcH)
		if !ok {
			continue
		}

		if int(r.Symbol) >= len(syms) {
			continue
		}
		sym := syms[r.Symbol]
		if selfelf.ST_TYPE(sym.Info) != selfelf.STT_FUNC && selfelf.ST_TYPE(sym.Info) != selfelf.STT_SECTION {
			continue
		}
		targetAddr := sym.Value + uint64(r.Addend)

		dstH, ok := mapper.Find(targetAddr, addrmap.DirTo)
		if !ok {
			continue
		}
		if dstH.FunctionIndex != funcIdx {
			continue // cross-function edges are discovered from the profile's MapCallOut records instead
		}
		dstFlat, ok := f.ToFlat(dstH)
		if !ok {
			continue
		}
		// A same-function relocation landing back on the entry block,
		// from anywhere but the entry itself, is a recursive self-call.
		if dstFlat.FlatBBIndex == 0 && srcFlat.FlatBBIndex != 0 {
			out = append(out, cfg.Reloc{Src: cfg.NodeHandle(srcFlat.FlatBBIndex), IsFuncEntry: true})
			continue
		}
		out = append(out, cfg.Reloc{
			Src:      cfg.NodeHandle(srcFlat.FlatBBIndex),
			SameFunc: true,
			Target:   cfg.NodeHandle(dstFlat.FlatBBIndex),
		})
	}
	return out
}

// ordinalSym is what a profile ordinal (function or bb-symbol) resolves
// to once matched against the address mapper's selected functions.
type ordinalSym struct {
	FuncIndex int
	FlatIdx   int
}

// resolveOrdinals matches every ordinal the profile's symbol table names
// (function ordinals and bb-symbol ordinals) against the address mapper's
// selected functions by alias name, and decodes each bb-symbol's unary
// index into a flat bb index within its function (bb index N -> flat
// index N, since the function's own entry is named by the "N..." function
// record rather than a separate bb symbol).
func resolveOrdinals(st *profile.SymbolTable, mapper *addrmap.Mapper) map[int]ordinalSym {
	byAlias := make(map[string]int, len(mapper.Functions))
	for idx, f := range mapper.Functions {
		for _, a := range f.Aliases {
			byAlias[a] = idx
		}
	}

	funcOrdToIdx := make(map[int]int, len(st.Functions))
	out := make(map[int]ordinalSym, len(st.Functions)+len(st.BBSymbols))
	for ord, rec := range st.Functions {
		for _, a := range rec.Aliases {
			if idx, ok := byAlias[a]; ok {
				funcOrdToIdx[ord] = idx
				out[ord] = ordinalSym{FuncIndex: idx, FlatIdx: 0}
				break
			}
		}
	}
	for ord, rec := range st.BBSymbols {
		idx, ok := funcOrdToIdx[rec.FuncOrdinal]
		if !ok {
			continue
		}
		out[ord] = ordinalSym{FuncIndex: idx, FlatIdx: rec.BBIndex}
	}
	return out
}
