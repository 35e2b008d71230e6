package pathprofile

// Trace is one LBR-like intra-function branch path: an ordered sequence
// of flat bb indices, Freq times, optionally preceded by PredBBIndex (the
// block executed immediately before Path[0]).
type Trace struct {
	FuncIndex   int
	PredBBIndex int
	HasPred     bool
	Path        []int
	Freq        int
}

// RecordPath extracts one path trace into prog's tree for trace.FuncIndex,
// inserting any missing path nodes along the way and accumulating
// trace.Freq at every node from the tree root down to the trace's last
// block, all keyed by the same path-predecessor (the block preceding
// Path[0] — a path node's PathPredInfo always refers to the predecessor
// of its *tree's root*, per the original's PathNode semantics).
func RecordPath(prog *ProgramPathProfile, trace Trace) {
	if len(trace.Path) == 0 {
		return
	}
	fp := prog.GetProfileForFunctionIndex(trace.FuncIndex)
	root := fp.GetOrInsertPathTree(trace.Path[0])

	node := root
	addFreq(node, trace.PredBBIndex, trace.HasPred, trace.Freq)
	for _, bbIndex := range trace.Path[1:] {
		node = node.GetOrInsertChild(bbIndex)
		addFreq(node, trace.PredBBIndex, trace.HasPred, trace.Freq)
	}
}

func addFreq(n *PathNode, predBBIndex int, hasPred bool, freq int) {
	if !hasPred {
		n.PredInfo.MissingPredEntry.Freq += freq
		return
	}
	n.PredInfo.GetOrInsertEntry(predBBIndex).Freq += freq
}

// RecordCall records that trace's ending block made a call to callee,
// returning into returnBBIndex, at frequency freq, attributed to the
// path predecessor used when the path itself was recorded.
func RecordCall(prog *ProgramPathProfile, trace Trace, callee CallRetInfo, freq int) {
	n := pathEndNode(prog, trace)
	if n == nil {
		return
	}
	entry := predEntry(n, trace.PredBBIndex, trace.HasPred)
	entry.addCall(callee, freq)
}

// RecordReturn records that trace's ending block returned into toBBIndex
// at frequency freq.
func RecordReturn(prog *ProgramPathProfile, trace Trace, toBBIndex int, freq int) {
	n := pathEndNode(prog, trace)
	if n == nil {
		return
	}
	entry := predEntry(n, trace.PredBBIndex, trace.HasPred)
	entry.addReturn(toBBIndex, freq)
}

func pathEndNode(prog *ProgramPathProfile, trace Trace) *PathNode {
	if len(trace.Path) == 0 {
		return nil
	}
	fp := prog.Functions[trace.FuncIndex]
	if fp == nil {
		return nil
	}
	node := fp.GetPathTree(trace.Path[0])
	for _, bbIndex := range trace.Path[1:] {
		if node == nil {
			return nil
		}
		node = node.GetChild(bbIndex)
	}
	return node
}

func predEntry(n *PathNode, predBBIndex int, hasPred bool) *PathPredInfoEntry {
	if !hasPred {
		return &n.PredInfo.MissingPredEntry
	}
	return n.PredInfo.GetOrInsertEntry(predBBIndex)
}
