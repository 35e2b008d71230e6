package addrmap

import "sort"

// Direction distinguishes the two address→handle lookup semantics of
// : "from" (the source end of a branch) and "to" (the
// destination/landing end).
type Direction int

const (
	DirFrom Direction = iota
	DirTo
)

type handleAddr struct {
	Addr uint64
	H    BbHandle
}

// Mapper inverts a sparse, per-function bb-address map into an efficient
// address→block lookup.
type Mapper struct {
	Functions         map[int]*Function
	SelectedFunctions []int

	// handles is the global, address-sorted list of bb handles across all
	// selected functions.
	handles []handleAddr
}

// BBHandles returns all bb handles of selected functions in ascending
// address order.
func (m *Mapper) BBHandles() []BbHandle {
	out := make([]BbHandle, len(m.handles))
	for i, h := range m.handles {
		out[i] = h.H
	}
	return out
}

func (m *Mapper) buildHandles() {
	m.handles = m.handles[:0]
	for _, idx := range m.SelectedFunctions {
		f := m.Functions[idx]
		for ri, rng := range f.Ranges {
			for bi := range rng.Entries {
				h := BbHandle{FunctionIndex: f.Index, RangeIndex: ri, BBIndex: bi}
				m.handles = append(m.handles, handleAddr{Addr: f.Addr(h), H: h})
			}
		}
	}
	sort.Slice(m.handles, func(i, j int) bool {
		a, b := m.handles[i], m.handles[j]
		if a.Addr != b.Addr {
			return a.Addr < b.Addr
		}
		if a.H.FunctionIndex != b.H.FunctionIndex {
			return a.H.FunctionIndex < b.H.FunctionIndex
		}
		if a.H.RangeIndex != b.H.RangeIndex {
			return a.H.RangeIndex < b.H.RangeIndex
		}
		return a.H.BBIndex < b.H.BBIndex
	})
}

func (m *Mapper) addrOf(h BbHandle) uint64 { return m.Functions[h.FunctionIndex].Addr(h) }
func (m *Mapper) sizeOf(h BbHandle) uint64 { return m.Functions[h.FunctionIndex].Entry(h).Size }

// Find implements the address→handle lookup of .
func (m *Mapper) Find(addr uint64, dir Direction) (BbHandle, bool) {
	if len(m.handles) == 0 {
		return BbHandle{}, false
	}
	// Upper-bound by address, then step one back.
	idx := sort.Search(len(m.handles), func(i int) bool { return m.handles[i].Addr > addr })
	if idx == 0 {
		return BbHandle{}, false
	}
	pos := idx - 1
	h := m.handles[pos].H
	addrH := m.handles[pos].Addr
	sizeH := m.sizeOf(h)

	if addr > addrH && addr < addrH+sizeH {
		return h, true
	}
	if addr == addrH+sizeH && dir == DirTo {
		return h, true
	}
	if addr == addrH {
		if dir == DirTo {
			// Walk backward while address and function match; return the
			// first (leftmost) such entry.
			i := pos
			for i > 0 && m.handles[i-1].Addr == addr && m.handles[i-1].H.FunctionIndex == h.FunctionIndex {
				i--
			}
			return m.handles[i].H, true
		}
		// DirFrom: return the unique non-zero-sized entry sharing this
		// address within the same function.
		lo, hi := pos, pos
		for lo > 0 && m.handles[lo-1].Addr == addr && m.handles[lo-1].H.FunctionIndex == h.FunctionIndex {
			lo--
		}
		for hi+1 < len(m.handles) && m.handles[hi+1].Addr == addr && m.handles[hi+1].H.FunctionIndex == h.FunctionIndex {
			hi++
		}
		for i := lo; i <= hi; i++ {
			if m.sizeOf(m.handles[i].H) > 0 {
				return m.handles[i].H, true
			}
		}
		return BbHandle{}, false
	}
	return BbHandle{}, false
}
