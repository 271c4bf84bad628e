// Package download manages offline copies of episode audio: a per-episode
// state machine over HTTP transfers, with the download directory itself as
// the source of truth for completed downloads.
package download

// Kind enumerates the download states.
type Kind int

const (
	NotStarted Kind = iota
	InProgress
	Complete
	Failed
)

func (k Kind) String() string {
	switch k {
	case NotStarted:
		return "not started"
	case InProgress:
		return "in progress"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the tagged download state for one episode. Fraction is only
// meaningful for InProgress, LocalPath for Complete, Message for Failed.
type State struct {
	Kind      Kind
	Fraction  float64
	LocalPath string
	Message   string
}

// Progress is a state-change event delivered to observers.
type Progress struct {
	EpisodeID string
	State     State
}
