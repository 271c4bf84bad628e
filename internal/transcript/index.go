package transcript

// Index answers "which cue is active at time T" over an ordered cue list.
// Lookups arrive on every playback tick with a nearly monotonically
// increasing T, so the index remembers the last answer and scans from there
// when it can.
type Index struct {
	cues []Cue
	last int
}

// NewIndex builds an index over cues, which must be sorted ascending by
// start time and non-overlapping.
func NewIndex(cues []Cue) *Index {
	return &Index{cues: cues, last: -1}
}

// Cues returns the underlying cue list.
func (ix *Index) Cues() []Cue {
	return ix.cues
}

// Lookup returns the index of the cue active at time t, or -1 when the list
// is empty. A cue stays active through any gap until the next cue starts;
// times before the first cue map to index 0, times past the last cue map to
// the last index.
func (ix *Index) Lookup(t float64) int {
	if len(ix.cues) == 0 {
		return -1
	}

	start := 0
	if ix.last >= 0 && ix.last < len(ix.cues) && t >= ix.cues[ix.last].Start {
		start = ix.last
	}

	idx := start
	for i := start; i < len(ix.cues); i++ {
		if ix.cues[i].Start > t {
			break
		}
		idx = i
	}

	ix.last = idx
	return idx
}
