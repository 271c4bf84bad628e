package links

import (
	"fmt"

	"github.com/strollcast/strollcast/internal/transcript"
)

// Triggers remembers which (episode, cue) pairs have already fired their
// audible cue, so the chime plays once even when playback position
// oscillates around the trigger boundary.
type Triggers struct {
	fired map[string]struct{}
}

// NewTriggers creates an empty trigger set.
func NewTriggers() *Triggers {
	return &Triggers{fired: make(map[string]struct{})}
}

// Reset clears all fired keys. Called on every session load.
func (tr *Triggers) Reset() {
	tr.fired = make(map[string]struct{})
}

// ShouldChime reports whether the audible cue should fire for the cue at
// cueIndex given the current position. A referenced cue fires once playback
// reaches two-thirds of the way through its span, and at most once per
// (episode, cue) pair.
func (tr *Triggers) ShouldChime(episodeID string, cueIndex int, position float64, cue transcript.Cue) bool {
	if cueIndex < 0 {
		return false
	}
	if _, ok := FindReference(cue.Text); !ok {
		return false
	}

	threshold := cue.Start + (cue.End-cue.Start)*2/3
	if position < threshold {
		return false
	}

	key := fmt.Sprintf("%s:%d", episodeID, cueIndex)
	if _, done := tr.fired[key]; done {
		return false
	}
	tr.fired[key] = struct{}{}
	return true
}
