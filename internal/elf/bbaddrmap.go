package elf

import (
	"fmt"

	"propeller/internal/binstream"
)

// BBEntry is one basic-block entry within a range: an offset/size pair plus
// the metadata flags the compiler emits for it.
type BBEntry struct {
	ID              uint64
	Offset          uint64
	Size            uint64
	HasReturn       bool
	HasTailCall     bool
	IsEHPad         bool
	CanFallThrough  bool
	HasIndirectBranch bool
}

// BBRange is one contiguous address range of a function's bb-address map.
type BBRange struct {
	BaseAddress uint64
	Entries     []BBEntry
}

// FuncBBAddrMap is one function's entry from the SHT_LLVM_BB_ADDR_MAP
// section: its entry address and an ordered list of ranges.
type FuncBBAddrMap struct {
	FuncAddress uint64
	Ranges      []BBRange
}

// bb-address-map metadata bit layout.
const (
	metaHasReturn         = 1 << 0
	metaHasTailCall       = 1 << 1
	metaIsEHPad           = 1 << 2
	metaCanFallThrough    = 1 << 3
	metaHasIndirectBranch = 1 << 4
)

// ReadBBAddrMapSection decodes the SHT_LLVM_BB_ADDR_MAP section of f.
// Returns (nil, nil) if the object carries no such section (not
// instrumented with basic-block address maps).
//
// Encoding (per function record):
//
//	FuncAddress   uint64 LE
//	NumRanges     ULEB128
//	for each range:
//	  BaseAddress uint64 LE
//	  NumBlocks   ULEB128
//	  for each block: ID, Offset, Size, Metadata — all ULEB128
//
// This decoder targets the documented LLVM section layout closely enough
// to drive the core subsystems, not byte-for-byte compatibility with every
// LLVM toolchain version.
func (f *File) ReadBBAddrMapSection(maxSteps int) ([]FuncBBAddrMap, error) {
	if maxSteps <= 0 {
		maxSteps = binstream.DefaultMaxSteps
	}
	var secData []byte
	for _, s := range f.ELF.Sections {
		if s.Name == ".llvm_bb_addr_map" || s.Name == ".llvm_bb_addr_map.text" {
			d, err := s.Data()
			if err != nil {
				return nil, fmt.Errorf("elf: read bb-addr-map section: %w", err)
			}
			secData = append(secData, d...)
		}
	}
	if len(secData) == 0 {
		return nil, nil
	}
	return DecodeBBAddrMapData(secData, maxSteps)
}

// DecodeBBAddrMapData decodes raw SHT_LLVM_BB_ADDR_MAP section bytes. Split
// out from ReadBBAddrMapSection so the wire format can be exercised without
// a real ELF file.
func DecodeBBAddrMapData(secData []byte, maxSteps int) ([]FuncBBAddrMap, error) {
	if maxSteps <= 0 {
		maxSteps = binstream.DefaultMaxSteps
	}
	s := binstream.NewStream(secData)
	var out []FuncBBAddrMap
	for steps := 0; s.Remaining() > 0; steps++ {
		if steps > maxSteps {
			return nil, fmt.Errorf("%w: exceeded %d function records", ErrBadBBAddrs, maxSteps)
		}
		funcAddr, err := s.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("%w: function address: %v", ErrBadBBAddrs, err)
		}
		numRanges, err := s.ReadULEB128()
		if err != nil {
			return nil, fmt.Errorf("%w: num_ranges: %v", ErrBadBBAddrs, err)
		}
		if numRanges > uint64(maxSteps) {
			return nil, fmt.Errorf("%w: num_ranges %d exceeds cap", ErrBadBBAddrs, numRanges)
		}
		fm := FuncBBAddrMap{FuncAddress: funcAddr}
		for r := uint64(0); r < numRanges; r++ {
			base, err := s.ReadUint64()
			if err != nil {
				return nil, fmt.Errorf("%w: range %d base: %v", ErrBadBBAddrs, r, err)
			}
			numBlocks, err := s.ReadULEB128()
			if err != nil {
				return nil, fmt.Errorf("%w: range %d num_blocks: %v", ErrBadBBAddrs, r, err)
			}
			if numBlocks > uint64(maxSteps) {
				return nil, fmt.Errorf("%w: range %d num_blocks %d exceeds cap", ErrBadBBAddrs, r, numBlocks)
			}
			rng := BBRange{BaseAddress: base}
			for b := uint64(0); b < numBlocks; b++ {
				id, err := s.ReadULEB128()
				if err != nil {
					return nil, fmt.Errorf("%w: block %d id: %v", ErrBadBBAddrs, b, err)
				}
				off, err := s.ReadULEB128()
				if err != nil {
					return nil, fmt.Errorf("%w: block %d offset: %v", ErrBadBBAddrs, b, err)
				}
				size, err := s.ReadULEB128()
				if err != nil {
					return nil, fmt.Errorf("%w: block %d size: %v", ErrBadBBAddrs, b, err)
				}
				meta, err := s.ReadULEB128()
				if err != nil {
					return nil, fmt.Errorf("%w: block %d metadata: %v", ErrBadBBAddrs, b, err)
				}
				rng.Entries = append(rng.Entries, BBEntry{
					ID:                id,
					Offset:            off,
					Size:              size,
					HasReturn:         meta&metaHasReturn != 0,
					HasTailCall:       meta&metaHasTailCall != 0,
					IsEHPad:           meta&metaIsEHPad != 0,
					CanFallThrough:    meta&metaCanFallThrough != 0,
					HasIndirectBranch: meta&metaHasIndirectBranch != 0,
				})
			}
			fm.Ranges = append(fm.Ranges, rng)
		}
		out = append(out, fm)
	}
	return out, nil
}
