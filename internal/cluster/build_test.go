package cluster

import (
	"reflect"
	"testing"
)

func TestBuild_MergesCalleeIntoCaller(t *testing.T) {
	chains := []ChainRef{
		{FuncName: "caller", Hot: true, Size: 100, Weight: 100, DelegateAddr: 0x1000, Nodes: []string{"caller"}},
		{FuncName: "callee", Hot: true, Size: 50, Weight: 200, EntryFreq: 200, DelegateAddr: 0x2000, Nodes: []string{"callee"}},
	}
	edges := []CallEdge{{FromFunc: "caller", ToFunc: "callee", Weight: 100}}

	out := Build(chains, edges, 0)
	// callee is denser (200/50=4) so it's processed first; its most
	// likely predecessor is caller's cluster (the only caller), so
	// callee's cluster merges into caller's, appended after it.
	want := []string{"caller", "callee"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
}

func TestBuild_SkipsSelfAndOverlarge(t *testing.T) {
	chains := []ChainRef{
		{FuncName: "a", Hot: true, Size: 10, Weight: 10, DelegateAddr: 1, Nodes: []string{"a"}},
	}
	out := Build(chains, nil, 5) // a.Size(10) > maxClusterSize(5): skip merge attempt, stays alone
	if !reflect.DeepEqual(out, []string{"a"}) {
		t.Fatalf("out = %v, want [a]", out)
	}
}

func TestBuild_ColdChainsAppendedByAddress(t *testing.T) {
	chains := []ChainRef{
		{FuncName: "hotfn", Hot: true, Size: 10, Weight: 10, DelegateAddr: 0, Nodes: []string{"hotfn"}},
		{FuncName: "coldb", Hot: false, DelegateAddr: 0x200, Nodes: []string{"coldb"}},
		{FuncName: "colda", Hot: false, DelegateAddr: 0x100, Nodes: []string{"colda"}},
	}
	out := Build(chains, nil, 0)
	want := []string{"hotfn", "colda", "coldb"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
}

func TestDensityDegrades(t *testing.T) {
	k := &Cluster{Size: 100, Weight: 1}
	p := &Cluster{Size: 100, Weight: 1000}
	if !densityDegrades(k, p) {
		t.Error("expected merging a cold chunk into a dense cluster to degrade density")
	}
	k2 := &Cluster{Size: 10, Weight: 1000}
	p2 := &Cluster{Size: 10, Weight: 1000}
	if densityDegrades(k2, p2) {
		t.Error("expected a same-density merge to pass the guard")
	}
}
