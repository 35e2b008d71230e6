// Package elf provides ELF object loading for Propeller: loadable segments,
// the function symbol table, relocation sections, and the
// SHT_LLVM_BB_ADDR_MAP section. This package aims for a faithful-enough
// decoding of the inputs the core subsystems need, not a general-purpose
// ELF toolkit.
package elf

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

var (
	ErrNotELF     = errors.New("elf: not a valid ELF file")
	ErrNot64Bit   = errors.New("elf: not a 64-bit ELF object")
	ErrNoSymbol   = errors.New("elf: symbol not found")
	ErrNoSegment  = errors.New("elf: no PT_LOAD segment covers address")
	ErrNoSection  = errors.New("elf: section not found")
	ErrBadReloc   = errors.New("elf: malformed relocation section")
	ErrBadBBAddrs = errors.New("elf: malformed bb-address-map section")
)

// File wraps a debug/elf.File with the convenience accessors Propeller needs.
type File struct {
	ELF  *elf.File
	raw  io.ReaderAt
	size int64
}

// Open opens an ELF file and validates that it is 64-bit; the object type
// (relocatable, executable or shared) is not checked.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elf: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elf: stat: %w", err)
	}
	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}
	if ef.Class != elf.ELFCLASS64 {
		ef.Close()
		return nil, ErrNot64Bit
	}
	return &File{ELF: ef, raw: f, size: info.Size()}, nil
}

// Close releases resources.
func (f *File) Close() error { return f.ELF.Close() }

// FileSize returns the size of the underlying file.
func (f *File) FileSize() int64 { return f.size }

// ByteOrder returns the ELF byte order.
func (f *File) ByteOrder() binary.ByteOrder { return f.ELF.ByteOrder }

// IsRelocatable reports whether this object is ET_REL (e.g. a kernel module
// or an unlinked .o, as opposed to a linked executable/shared object).
func (f *File) IsRelocatable() bool { return f.ELF.Type == elf.ET_REL }

// SegmentInfo describes a PT_LOAD segment.
type SegmentInfo struct {
	Vaddr  uint64
	Memsz  uint64
	Filesz uint64
	Offset uint64
	Flags  elf.ProgFlag
}

// LoadSegments returns all PT_LOAD segments.
func (f *File) LoadSegments() []SegmentInfo {
	var segs []SegmentInfo
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		segs = append(segs, SegmentInfo{
			Vaddr: p.Vaddr, Memsz: p.Memsz, Filesz: p.Filesz,
			Offset: p.Off, Flags: p.Flags,
		})
	}
	return segs
}

// VAToFileOffset converts a virtual address to a file offset using PT_LOAD
// segments. When no PT_LOAD segment covers va (as for ET_REL objects, which
// have no segments) it returns an error wrapping ErrNoSegment.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Memsz {
			off := va - p.Vaddr + p.Off
			if off >= uint64(f.size) {
				return 0, fmt.Errorf("elf: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, off, f.size)
			}
			return off, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadBytesAtVA reads n bytes starting at the given virtual address.
func (f *File) ReadBytesAtVA(va uint64, n int) ([]byte, error) {
	off, err := f.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	avail := f.size - int64(off)
	if avail <= 0 {
		return nil, fmt.Errorf("elf: offset 0x%x at or past end of file", off)
	}
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	if _, err := f.raw.ReadAt(buf, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elf: read at 0x%x: %w", off, err)
	}
	return buf, nil
}

// FuncSymbol is one function symbol from the symbol table.
type FuncSymbol struct {
	Name        string
	Value       uint64 // entry address
	Size        uint64
	SectionName string // ".text" for any .text/.text.* section
	SectionIdx  int
}

// FuncSymbolsByAddress returns function symbols grouped by entry address
// (multiple aliases, e.g. weak definitions, may share an address) in a map;
// each address's slice keeps symbol-table order.
func (f *File) FuncSymbolsByAddress() (map[uint64][]FuncSymbol, error) {
	syms, err := f.ELF.Symbols()
	if err != nil && len(syms) == 0 {
		// No symbol table could be read.
		return nil, fmt.Errorf("elf: symbols: %w", err)
	}
	out := make(map[uint64][]FuncSymbol)
	sections := f.ELF.Sections
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if s.Section >= elf.SectionIndex(len(sections)) || int(s.Section) < 0 {
			continue
		}
		secName := ""
		if int(s.Section) < len(sections) {
			secName = sections[s.Section].Name
		}
		out[s.Value] = append(out[s.Value], FuncSymbol{
			Name: s.Name, Value: s.Value, Size: s.Size,
			SectionName: normalizeTextSection(secName),
			SectionIdx:  int(s.Section),
		})
	}
	return out, nil
}

// normalizeTextSection collapses ".text.foo" to ".text" per selection
// policy ("its section name is `.text` or begins with `.text.`").
func normalizeTextSection(name string) string {
	if name == ".text" || (len(name) > 6 && name[:6] == ".text.") {
		return ".text"
	}
	return name
}

// Symbol looks up a function symbol by exact name.
func (f *File) Symbol(name string) (addr, size uint64, err error) {
	syms, err := f.ELF.Symbols()
	if err != nil {
		return 0, 0, fmt.Errorf("elf: symbols: %w", err)
	}
	for _, s := range syms {
		if s.Name == name {
			return s.Value, s.Size, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrNoSymbol, name)
}

// Reloc is one relocation entry (RELA form: explicit addend).
type Reloc struct {
	Offset uint64 // offset within the relocated section
	Symbol uint32 // symbol table index
	Type   uint32
	Addend int64
}

// SectionRelocations reads the RELA relocation entries applying to the
// section named target (e.g. a ".text.foo" bb section), by locating a
// ".rela<target>" section. Returns (nil, nil) if no such section exists.
func (f *File) SectionRelocations(target string) ([]Reloc, error) {
	relaName := ".rela" + target
	var sec *elf.Section
	for _, s := range f.ELF.Sections {
		if s.Name == relaName {
			sec = s
			break
		}
	}
	if sec == nil {
		return nil, nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("elf: read %s: %w", relaName, err)
	}
	const entSize = 24 // Elf64_Rela: r_offset(8) + r_info(8) + r_addend(8)
	if len(data)%entSize != 0 {
		return nil, fmt.Errorf("%w: %s size %d not a multiple of %d", ErrBadReloc, relaName, len(data), entSize)
	}
	n := len(data) / entSize
	out := make([]Reloc, 0, n)
	bo := f.ELF.ByteOrder
	for i := 0; i < n; i++ {
		b := data[i*entSize:]
		off := bo.Uint64(b[0:8])
		info := bo.Uint64(b[8:16])
		addend := int64(bo.Uint64(b[16:24]))
		out = append(out, Reloc{
			Offset: off,
			Symbol: uint32(info >> 32),
			Type:   uint32(info),
			Addend: addend,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

// SymbolName resolves a symbol-table index to a name (function or section
// symbol), used to turn Reloc.Symbol into a callable/branch target name.
func (f *File) SymbolName(idx uint32) (string, error) {
	syms, err := f.ELF.Symbols()
	if err != nil {
		return "", fmt.Errorf("elf: symbols: %w", err)
	}
	if int(idx) >= len(syms) {
		return "", fmt.Errorf("%w: index %d", ErrNoSymbol, idx)
	}
	return syms[idx].Name, nil
}
