package main

import (
	"testing"

	"propeller/internal/addrmap"
	"propeller/internal/cfg"
	"propeller/internal/nodechain"
)

func TestBBSymbolName(t *testing.T) {
	cases := []struct {
		bbIndex int
		want    string
	}{
		{1, "foo.1"},
		{3, "foo.111"},
	}
	for _, c := range cases {
		if got := bbSymbolName("foo", c.bbIndex); got != c.want {
			t.Errorf("bbSymbolName(foo, %d) = %q, want %q", c.bbIndex, got, c.want)
		}
	}
}

func TestIdentityChain(t *testing.T) {
	g := cfg.NewCFG("foo", 24, []uint64{0x1000, 0x1008, 0x1010}, []uint64{8, 8, 8})
	g.Nodes[1].Freq = 5

	refs := identityChain(g)
	if len(refs) != 1 {
		t.Fatalf("identityChain returned %d refs, want 1", len(refs))
	}
	ref := refs[0]
	if ref.FuncName != "foo" {
		t.Errorf("FuncName = %q, want foo", ref.FuncName)
	}
	if ref.Size != 24 {
		t.Errorf("Size = %d, want 24", ref.Size)
	}
	want := []string{"foo", "foo.1", "foo.11"}
	if len(ref.Nodes) != len(want) {
		t.Fatalf("Nodes = %v, want %v", ref.Nodes, want)
	}
	for i := range want {
		if ref.Nodes[i] != want[i] {
			t.Errorf("Nodes[%d] = %q, want %q", i, ref.Nodes[i], want[i])
		}
	}
}

func TestToChainRef(t *testing.T) {
	g := cfg.NewCFG("foo", 16, []uint64{0x1000, 0x1008}, []uint64{8, 8})
	c := &nodechain.Chain{
		Handle: 0,
		Nodes:  []cfg.NodeHandle{1, 0},
		Size:   16,
		Weight: 7,
	}
	ref := toChainRef(g, c, true)
	want := []string{"foo.1", "foo"}
	if len(ref.Nodes) != 2 || ref.Nodes[0] != want[0] || ref.Nodes[1] != want[1] {
		t.Errorf("Nodes = %v, want %v", ref.Nodes, want)
	}
	if !ref.Hot {
		t.Error("expected Hot to be true")
	}
	if ref.DelegateAddr != g.Nodes[1].Addr {
		t.Errorf("DelegateAddr = %#x, want %#x", ref.DelegateAddr, g.Nodes[1].Addr)
	}
}

func TestCrossFuncEdges(t *testing.T) {
	g := cfg.NewCFG("foo", 8, []uint64{0x1000}, []uint64{8})
	g.MapCallOut(0, "bar", true, 0x2000, 0x2000, 3, true)
	g.MapCallOut(0, "baz", false, 0x3000, 0x3008, 0, false) // zero weight, still recorded as an edge

	edges := crossFuncEdges(g)
	if len(edges) != 2 {
		t.Fatalf("crossFuncEdges returned %d edges, want 2", len(edges))
	}
	if edges[0].ToFunc != "bar" || edges[0].Weight != 3 {
		t.Errorf("edges[0] = %+v, want ToFunc=bar Weight=3", edges[0])
	}
}

func TestIsFuncSymbolName(t *testing.T) {
	mapper := &addrmap.Mapper{Functions: map[int]*addrmap.Function{
		0: {Index: 0, Name: "foo"},
	}}
	if !isFuncSymbolName(mapper, "foo") {
		t.Error("expected foo to be a func symbol")
	}
	if isFuncSymbolName(mapper, "foo.1") {
		t.Error("expected foo.1 not to be a func symbol")
	}
}

func TestSortedFuncNames(t *testing.T) {
	cfgs := map[string]*cfg.CFG{
		"zeta": {}, "alpha": {}, "mu": {},
	}
	got := sortedFuncNames(cfgs)
	want := []string{"alpha", "mu", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedFuncNames = %v, want %v", got, want)
		}
	}
}
