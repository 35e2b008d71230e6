package addrmap

// fallthroughWarnThreshold is the block-span beyond which CanFallThrough
// still reports feasible but flags a warning: 200 or more blocks spanned
// is unusual enough to be worth a warning, though still permitted.
const fallthroughWarnThreshold = 200

// CanFallThrough reports whether control can fall through from a to b:
// both handles must be in the same function and range, a must not come
// after b, and every block in the half-open span [a, b) must carry
// CanFallThrough. The second return value reports whether the span is wide
// enough to warrant a warning, though the fallthrough itself is still
// reported feasible.
func (f *Function) CanFallThrough(a, b BbHandle) (ok bool, warn bool) {
	if a.RangeIndex != b.RangeIndex || a.FunctionIndex != f.Index || b.FunctionIndex != f.Index {
		return false, false
	}
	if a.BBIndex > b.BBIndex {
		return false, false
	}
	rng := f.Ranges[a.RangeIndex]
	for i := a.BBIndex; i < b.BBIndex; i++ {
		if !rng.Entries[i].Meta.CanFallThrough {
			return false, false
		}
	}
	span := b.BBIndex - a.BBIndex
	return true, span >= fallthroughWarnThreshold
}

// EdgeKind classifies an inter-procedural branch edge (
// "Call / return classification").
type EdgeKind int

const (
	EdgeUnclassified EdgeKind = iota
	EdgeCall
	EdgeReturn
)

// ClassifyBranch classifies a branch given what is known about its target
// and source:
//
//   - targetIsFuncEntry: the branch target is the entry block of some
//     function → Call.
//   - targetIsBlockStart: the branch target lands exactly on a known block
//     boundary (not mid-block).
//   - sourceHasReturn: the source block is flagged has_return.
//
// A target that is not a function entry is classified Return when either
// it doesn't land on a block boundary, or the source block has_return is
// set; otherwise the branch is an unclassified inter-function branch.
func ClassifyBranch(targetIsFuncEntry, targetIsBlockStart, sourceHasReturn bool) EdgeKind {
	if targetIsFuncEntry {
		return EdgeCall
	}
	if !targetIsBlockStart || sourceHasReturn {
		return EdgeReturn
	}
	return EdgeUnclassified
}
