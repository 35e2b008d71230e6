package profile

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLegacyText_Basic(t *testing.T) {
	src := `@out.so
# a comment
S 1 8 Nfoo/foo.__uniq.1
S 2 c 1.11
B 1 2 7 C
F 1 2 3
!foo
`
	p, err := ParseLegacyText(strings.NewReader(src), "out.so")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.OutputFilter) != 1 || p.OutputFilter[0] != "out.so" {
		t.Errorf("OutputFilter = %+v", p.OutputFilter)
	}
	if len(p.Symbols) != 2 {
		t.Fatalf("Symbols = %+v", p.Symbols)
	}
	if !p.Symbols[0].IsFunction || p.Symbols[0].Aliases[0] != "foo" {
		t.Errorf("symbol 0 = %+v", p.Symbols[0])
	}
	if p.Symbols[1].FuncOrdinal != 1 || p.Symbols[1].BBIndex != 2 {
		t.Errorf("symbol 1 = %+v, want FuncOrdinal=1 BBIndex=2", p.Symbols[1])
	}
	if len(p.Branches) != 1 || p.Branches[0].Tag != TagCall {
		t.Errorf("Branches = %+v", p.Branches)
	}
	if len(p.Fallthroughs) != 1 || p.Fallthroughs[0].Count != 3 {
		t.Errorf("Fallthroughs = %+v", p.Fallthroughs)
	}
	if len(p.FunctionNames) != 1 || p.FunctionNames[0] != "foo" {
		t.Errorf("FunctionNames = %+v", p.FunctionNames)
	}
}

func TestParseLegacyText_OutputMismatch(t *testing.T) {
	src := "@other.so\nS 1 4 Nfoo\n"
	_, err := ParseLegacyText(strings.NewReader(src), "out.so")
	if !errors.Is(err, ErrProfileMismatch) {
		t.Fatalf("err = %v, want ErrProfileMismatch", err)
	}
}

func TestDecodeBBSymbolName(t *testing.T) {
	cases := []struct {
		name    string
		wantOrd int
		wantBB  int
		wantErr bool
	}{
		{"14.111", 14, 3, false},
		{"1.1", 1, 1, false},
		{"1.2", 0, 0, true},
		{"1.", 0, 0, true},
		{"abc", 0, 0, true},
	}
	for _, c := range cases {
		ord, bb, err := decodeBBSymbolName(c.name)
		if c.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", c.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.name, err)
			continue
		}
		if ord != c.wantOrd || bb != c.wantBB {
			t.Errorf("%q: got (%d,%d), want (%d,%d)", c.name, ord, bb, c.wantOrd, c.wantBB)
		}
	}
}

func TestParseLegacyText_MalformedOrdinal(t *testing.T) {
	src := "S x 4 Nfoo\n"
	_, err := ParseLegacyText(strings.NewReader(src), "")
	if !errors.Is(err, ErrProfileMalformed) {
		t.Fatalf("err = %v, want ErrProfileMalformed", err)
	}
}

func TestBuildSymbolTable_MissingSymbol(t *testing.T) {
	p := &ParsedProfile{
		Symbols: []SymbolRecord{
			{Ordinal: 1, FuncOrdinal: 99, BBIndex: 1},
		},
	}
	_, err := BuildSymbolTable(p)
	if !errors.Is(err, ErrMissingSymbol) {
		t.Fatalf("err = %v, want ErrMissingSymbol", err)
	}
}

func TestBuildSymbolTable_DeferredForwardReference(t *testing.T) {
	p := &ParsedProfile{
		Symbols: []SymbolRecord{
			{Ordinal: 2, FuncOrdinal: 1, BBIndex: 1}, // bb symbol before its function
			{Ordinal: 1, IsFunction: true, Aliases: []string{"foo"}},
		},
	}
	st, err := BuildSymbolTable(p)
	if err != nil {
		t.Fatalf("BuildSymbolTable: %v", err)
	}
	if _, ok := st.ResolveOrdinal(2); !ok {
		t.Fatal("expected ordinal 2 resolved")
	}
}
