// Package layout implements the Propeller layout emitter:
// it produces the final ordered symbol list and the "legacy bb-symbol
// retain set" used to decide which basic-block symbols must survive in
// the rewritten binary.
package layout

// BlockEntry is one emitted symbol: a basic block (or whole function, for
// functions with no block-level data) placed into the final order.
type BlockEntry struct {
	FuncName     string
	Name         string
	Hot          bool
	IsFuncSymbol bool
}

// Result is the C7 output: the final symbol order plus a queryable
// retain-set for legacy bb symbols.
type Result struct {
	Order []string

	isFuncSymbol map[string]bool
	retain       map[string]bool
}

// Build assembles the final ordered symbol list from entries already
// placed in hot-then-cold order by the caller (C5/C6), and computes the
// legacy bb-symbol retain set: for cold bb symbols, only the first bb
// symbol of every function partition (detected by a function-name change
// while iterating) is retained; hot bb symbols are never retained since
// they're absorbed into the function symbol.
func Build(entries []BlockEntry) *Result {
	r := &Result{
		isFuncSymbol: make(map[string]bool, len(entries)),
		retain:       make(map[string]bool),
	}

	lastFunc := ""
	seenFuncOnce := false
	for _, e := range entries {
		r.Order = append(r.Order, e.Name)
		if e.IsFuncSymbol {
			r.isFuncSymbol[e.Name] = true
			continue
		}
		if e.Hot {
			continue
		}
		if !seenFuncOnce || e.FuncName != lastFunc {
			r.retain[e.Name] = true
		}
		lastFunc = e.FuncName
		seenFuncOnce = true
	}
	return r
}

// ShouldKeepBBSymbol returns true for function symbols unconditionally,
// and for bb symbols iff they are in the legacy retain set.
func (r *Result) ShouldKeepBBSymbol(name string) bool {
	if r.isFuncSymbol[name] {
		return true
	}
	return r.retain[name]
}
