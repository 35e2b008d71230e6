package profile

// TakenBranchAggregate consumes the legacy "B" and "F" records directly
// ( "Taken-branch aggregator"): (from, to) -> counter pairs are
// applied as-is, and fallthrough counters, where present in the profile,
// are likewise applied as-is. Fallthrough edges not present in the
// profile are left for the CFG builder to infer.
func TakenBranchAggregate(p *ParsedProfile) (*Aggregate, error) {
	agg := newAggregate()
	for _, b := range p.Branches {
		agg.addBranch(b.From, b.To, b.Count)
	}
	for _, f := range p.Fallthroughs {
		agg.addFallthrough(f.From, f.To, f.Count)
	}
	if len(agg.BranchCounters) == 0 && len(agg.FallthroughCounters) == 0 {
		return agg, ErrNoProfileUsable
	}
	return agg, nil
}

// BlockInfo is the minimal per-block shape the frequency aggregator needs
// from the address mapper / CFG builder to infer fallthroughs: whether the
// block can fall through, and which block follows it by address within the
// same function.
type BlockInfo struct {
	Ordinal             int
	CanFallThrough      bool
	NextByAddressExists bool
	NextByAddress       int
}

// TakenNotTaken is one per-address observation: the counter recorded at a
// branch site for its taken and not-taken outcomes.
type TakenNotTaken struct {
	Ordinal     int // ordinal of the block containing this branch site
	Taken       uint64
	NotTaken    uint64
	HasTaken    bool
	HasNotTaken bool
	To          int // taken target ordinal, meaningful when HasTaken
}

// FrequencyAggregate implements the frequency-aggregator variant: per-address
// taken/not-taken counters are consumed, and fallthroughs are inferred from
// not-taken branches whose containing block can fall through.
func FrequencyAggregate(obs []TakenNotTaken, blocks map[int]BlockInfo) (*Aggregate, error) {
	agg := newAggregate()
	for _, o := range obs {
		if o.HasTaken {
			agg.addBranch(o.Ordinal, o.To, o.Taken)
		}
		if o.HasNotTaken {
			blk, ok := blocks[o.Ordinal]
			if !ok || !blk.CanFallThrough || !blk.NextByAddressExists {
				continue
			}
			agg.addFallthrough(o.Ordinal, blk.NextByAddress, o.NotTaken)
		}
	}
	if len(agg.BranchCounters) == 0 && len(agg.FallthroughCounters) == 0 {
		return agg, ErrNoProfileUsable
	}
	return agg, nil
}
