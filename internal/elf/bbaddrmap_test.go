package elf

import "testing"

// encodeULEB128 is a small test-only encoder mirroring binstream's decoder,
// used to construct synthetic bb-address-map section bytes.
func encodeULEB128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func encodeUint64(v uint64) []byte {
	return []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
}

func buildFuncRecord(funcAddr uint64, ranges [][]BBEntry, rangeBases []uint64) []byte {
	var out []byte
	out = append(out, encodeUint64(funcAddr)...)
	out = append(out, encodeULEB128(uint64(len(ranges)))...)
	for i, entries := range ranges {
		out = append(out, encodeUint64(rangeBases[i])...)
		out = append(out, encodeULEB128(uint64(len(entries)))...)
		for _, e := range entries {
			out = append(out, encodeULEB128(e.ID)...)
			out = append(out, encodeULEB128(e.Offset)...)
			out = append(out, encodeULEB128(e.Size)...)
			var meta uint64
			if e.HasReturn {
				meta |= metaHasReturn
			}
			if e.HasTailCall {
				meta |= metaHasTailCall
			}
			if e.IsEHPad {
				meta |= metaIsEHPad
			}
			if e.CanFallThrough {
				meta |= metaCanFallThrough
			}
			if e.HasIndirectBranch {
				meta |= metaHasIndirectBranch
			}
			out = append(out, encodeULEB128(meta)...)
		}
	}
	return out
}

func TestDecodeBBAddrMapData_SingleFuncSingleRange(t *testing.T) {
	entries := []BBEntry{
		{ID: 0, Offset: 0, Size: 8, CanFallThrough: true},
		{ID: 1, Offset: 8, Size: 4, HasReturn: true},
	}
	data := buildFuncRecord(0x1000, [][]BBEntry{entries}, []uint64{0x1000})

	got, err := DecodeBBAddrMapData(data, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 function, got %d", len(got))
	}
	f := got[0]
	if f.FuncAddress != 0x1000 {
		t.Errorf("FuncAddress = 0x%x, want 0x1000", f.FuncAddress)
	}
	if len(f.Ranges) != 1 || len(f.Ranges[0].Entries) != 2 {
		t.Fatalf("unexpected shape: %+v", f)
	}
	e0 := f.Ranges[0].Entries[0]
	if e0.Size != 8 || !e0.CanFallThrough {
		t.Errorf("entry0 = %+v", e0)
	}
	e1 := f.Ranges[0].Entries[1]
	if e1.Offset != 8 || !e1.HasReturn {
		t.Errorf("entry1 = %+v", e1)
	}
}

func TestDecodeBBAddrMapData_MultipleFunctionsAndRanges(t *testing.T) {
	f1 := buildFuncRecord(0x2000,
		[][]BBEntry{
			{{ID: 0, Offset: 0, Size: 4, CanFallThrough: true}},
			{{ID: 1, Offset: 0, Size: 4, HasIndirectBranch: true}},
		},
		[]uint64{0x2000, 0x3000})
	f2 := buildFuncRecord(0x4000,
		[][]BBEntry{{{ID: 0, Offset: 0, Size: 0, HasTailCall: true}}},
		[]uint64{0x4000})

	data := append(append([]byte{}, f1...), f2...)
	got, err := DecodeBBAddrMapData(data, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(got))
	}
	if len(got[0].Ranges) != 2 {
		t.Errorf("func0 ranges = %d, want 2", len(got[0].Ranges))
	}
	if got[1].FuncAddress != 0x4000 {
		t.Errorf("func1 addr = 0x%x", got[1].FuncAddress)
	}
	if got[1].Ranges[0].Entries[0].Size != 0 {
		t.Errorf("func1 zero-sized block expected")
	}
}

func TestDecodeBBAddrMapData_Empty(t *testing.T) {
	got, err := DecodeBBAddrMapData(nil, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestDecodeBBAddrMapData_TruncatedIsError(t *testing.T) {
	data := buildFuncRecord(0x1000, [][]BBEntry{{{ID: 0, Offset: 0, Size: 4}}}, []uint64{0x1000})
	data = data[:len(data)-1] // chop the last byte
	if _, err := DecodeBBAddrMapData(data, 0); err == nil {
		t.Fatal("expected error on truncated data")
	}
}
