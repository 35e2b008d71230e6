package main

import (
	"testing"

	"propeller/internal/addrmap"
	"propeller/internal/elf"
	"propeller/internal/profile"
)

func TestResolveOrdinals(t *testing.T) {
	mapper := &addrmap.Mapper{
		Functions: map[int]*addrmap.Function{
			0: {Index: 0, Name: "foo", Aliases: []string{"foo", "foo_alias"}},
			1: {Index: 1, Name: "bar", Aliases: []string{"bar"}},
		},
	}
	st := &profile.SymbolTable{
		Functions: map[int]profile.SymbolRecord{
			10: {Ordinal: 10, IsFunction: true, Aliases: []string{"foo_alias"}},
			20: {Ordinal: 20, IsFunction: true, Aliases: []string{"bar"}},
		},
		BBSymbols: map[int]profile.SymbolRecord{
			11: {Ordinal: 11, FuncOrdinal: 10, BBIndex: 1},
			12: {Ordinal: 12, FuncOrdinal: 10, BBIndex: 3},
			99: {Ordinal: 99, FuncOrdinal: 999, BBIndex: 1}, // unresolvable function ordinal
		},
	}

	got := resolveOrdinals(st, mapper)

	if s, ok := got[10]; !ok || s.FuncIndex != 0 || s.FlatIdx != 0 {
		t.Errorf("ordinal 10 = %+v, ok=%v, want FuncIndex=0 FlatIdx=0", s, ok)
	}
	if s, ok := got[20]; !ok || s.FuncIndex != 1 || s.FlatIdx != 0 {
		t.Errorf("ordinal 20 = %+v, ok=%v, want FuncIndex=1 FlatIdx=0", s, ok)
	}
	if s, ok := got[11]; !ok || s.FuncIndex != 0 || s.FlatIdx != 1 {
		t.Errorf("ordinal 11 = %+v, ok=%v, want FuncIndex=0 FlatIdx=1", s, ok)
	}
	if s, ok := got[12]; !ok || s.FlatIdx != 3 {
		t.Errorf("ordinal 12 = %+v, ok=%v, want FlatIdx=3", s, ok)
	}
	if _, ok := got[99]; ok {
		t.Error("ordinal 99 should not resolve: its function ordinal is unknown")
	}
}

func TestConvertRanges(t *testing.T) {
	in := []elf.BBRange{{
		BaseAddress: 0x1000,
		Entries: []elf.BBEntry{
			{ID: 0, Offset: 0, Size: 8, CanFallThrough: true},
			{ID: 1, Offset: 8, Size: 4, HasReturn: true},
		},
	}}

	out := convertRanges(in)
	if len(out) != 1 || len(out[0].Entries) != 2 {
		t.Fatalf("convertRanges(%v) = %+v, want 1 range with 2 entries", in, out)
	}
	if out[0].BaseAddress != 0x1000 {
		t.Errorf("BaseAddress = %#x, want 0x1000", out[0].BaseAddress)
	}
	if !out[0].Entries[0].Meta.CanFallThrough {
		t.Error("entry 0 should carry CanFallThrough")
	}
	if !out[0].Entries[1].Meta.HasReturn {
		t.Error("entry 1 should carry HasReturn")
	}
}
