package render

import (
	"strings"
	"testing"

	"propeller/internal/cfg"
)

func TestCFGDOT_Basic(t *testing.T) {
	g := cfg.NewCFG("foo", 24, []uint64{0x1000, 0x1008, 0x1010}, []uint64{8, 8, 8})
	g.Edges = []cfg.Edge{
		{Handle: 0, Src: 0, Sink: 1, Kind: cfg.EdgeIntraFunc},
		{Handle: 1, Src: 1, Sink: 2, Kind: cfg.EdgeIntraRecursiveSelfCall},
	}
	g.Nodes[0].FTEdge = 0

	dot := CFGDOT(g)
	if !strings.HasPrefix(dot, "digraph ") {
		t.Fatalf("dot does not start with digraph: %q", dot)
	}
	if !strings.Contains(dot, "size=8") {
		t.Error("expected a size= attribute per block")
	}
	if !strings.Contains(dot, "weight=1]") {
		t.Error("expected the fallthrough edge to carry weight 1.0")
	}
	if !strings.Contains(dot, "weight=0.1") {
		t.Error("expected the call-classified edge to carry weight 0.1")
	}
}

func TestDumpFilter(t *testing.T) {
	all := NewDumpFilter(nil)
	if !all.Match("anything") {
		t.Error("empty filter should match everything")
	}
	only := NewDumpFilter([]string{"foo"})
	if !only.Match("foo") || only.Match("bar") {
		t.Error("non-empty filter should match only listed names")
	}
}

func TestDumpCFGs(t *testing.T) {
	g := cfg.NewCFG("foo", 8, []uint64{0x1000}, []uint64{8})
	cfgs := map[string]*cfg.CFG{"foo": g}
	out := DumpCFGs(cfgs, NewDumpFilter(nil))
	if _, ok := out["foo"]; !ok {
		t.Fatal("expected foo in dump output")
	}
}
