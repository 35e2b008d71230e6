package addrmap

// ToFlat converts a triple handle to its flat (function, index) form by
// walking ranges in order and summing block counts.
func (f *Function) ToFlat(h BbHandle) (FlatBbHandle, bool) {
	if h.RangeIndex < 0 || h.RangeIndex >= len(f.Ranges) {
		return FlatBbHandle{}, false
	}
	if h.BBIndex < 0 || h.BBIndex >= len(f.Ranges[h.RangeIndex].Entries) {
		return FlatBbHandle{}, false
	}
	flat := 0
	for i := 0; i < h.RangeIndex; i++ {
		flat += len(f.Ranges[i].Entries)
	}
	flat += h.BBIndex
	return FlatBbHandle{FunctionIndex: f.Index, FlatBBIndex: flat}, true
}

// FromFlat converts a flat handle back to its triple form. Returns false if
// the flat index is out of range for the function.
func (f *Function) FromFlat(flat FlatBbHandle) (BbHandle, bool) {
	remaining := flat.FlatBBIndex
	if remaining < 0 {
		return BbHandle{}, false
	}
	for ri, rng := range f.Ranges {
		if remaining < len(rng.Entries) {
			return BbHandle{FunctionIndex: f.Index, RangeIndex: ri, BBIndex: remaining}, true
		}
		remaining -= len(rng.Entries)
	}
	return BbHandle{}, false
}
