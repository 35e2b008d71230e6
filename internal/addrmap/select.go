package addrmap

import (
	"sort"
	"strings"
)

// Build runs the function-selection policy over candidates and constructs
// a Mapper.
func Build(candidates []Candidate, opts Options) (*Mapper, Stats, error) {
	var stats Stats

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Aliases) == 0 {
			continue // policy #2: must have at least one symbol name
		}
		if len(opts.HotAddresses) > 0 && !overlapsHotAddress(c, opts.HotAddresses) {
			continue // policy #1
		}
		if opts.RequireTextSection && !isTextSection(c.SectionName) {
			continue // policy #3
		}
		filtered = append(filtered, c)
	}

	kept := resolveCollisions(filtered, &stats)

	funcs := make(map[int]*Function, len(kept))
	selectedIdx := make([]int, 0, len(kept))
	for _, c := range kept {
		f := &Function{
			Index:       c.FuncIndex,
			Ranges:      c.Ranges,
			Name:        c.Aliases[0],
			Aliases:     append([]string(nil), c.Aliases...),
			Size:        c.Size,
			SectionName: c.SectionName,
		}
		funcs[f.Index] = f
		selectedIdx = append(selectedIdx, f.Index)
	}
	sort.Ints(selectedIdx)
	stats.FunctionsSelected = len(selectedIdx)

	m := &Mapper{Functions: funcs, SelectedFunctions: selectedIdx}
	m.buildHandles()
	return m, stats, nil
}

func overlapsHotAddress(c Candidate, hot []uint64) bool {
	for _, rng := range c.Ranges {
		if len(rng.Entries) == 0 {
			continue
		}
		last := rng.Entries[len(rng.Entries)-1]
		lo := rng.BaseAddress
		hi := rng.BaseAddress + last.Offset + last.Size
		for _, h := range hot {
			if h >= lo && h < hi {
				return true
			}
		}
	}
	return false
}

func isTextSection(name string) bool {
	return name == ".text" || strings.HasPrefix(name, ".text.")
}

// isUniqueLinkageName reports whether name is a unique-linkage mangled
// form: it contains the substring ".__uniq.".
func isUniqueLinkageName(name string) bool {
	return strings.Contains(name, ".__uniq.")
}

// bbShape is the (offset, size) sequence across all ranges, used to decide
// whether colliding unique-linkage copies are structurally identical.
func bbShape(c Candidate) string {
	var b strings.Builder
	for _, rng := range c.Ranges {
		for _, e := range rng.Entries {
			b.WriteString(itoa(e.Offset))
			b.WriteByte(',')
			b.WriteString(itoa(e.Size))
			b.WriteByte(';')
		}
		b.WriteByte('|')
	}
	return b.String()
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// aliasKey canonicalizes an alias list for collision-group membership:
// two functions "collide on every alias name" iff their alias lists are
// identical.
func aliasKey(aliases []string) string {
	return strings.Join(aliases, "\x00")
}

// resolveCollisions groups candidates by identical alias list and applies
// the dedup/drop policy.
func resolveCollisions(candidates []Candidate, stats *Stats) []Candidate {
	groups := make(map[string][]Candidate)
	order := make([]string, 0)
	for _, c := range candidates {
		k := aliasKey(c.Aliases)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var kept []Candidate
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}
		primary := group[0].Aliases[0]
		if isUniqueLinkageName(primary) && sameShapeAll(group) {
			// Retain exactly one copy (earliest by FuncIndex for determinism).
			best := group[0]
			for _, c := range group[1:] {
				if c.FuncIndex < best.FuncIndex {
					best = c
				}
			}
			kept = append(kept, best)
			stats.DuplicateSymbols += len(group) - 1
			continue
		}
		// Otherwise all colliding copies are dropped.
		stats.DroppedCollisions += len(group)
	}
	return kept
}

func sameShapeAll(group []Candidate) bool {
	want := bbShape(group[0])
	for _, c := range group[1:] {
		if bbShape(c) != want {
			return false
		}
	}
	return true
}
