// Package history keeps a small stack of recently played episodes so "go
// back" can retrace episode switches.
package history

import (
	"time"

	"github.com/strollcast/strollcast/internal/models"
)

// MaxEntries caps the stack; the oldest entry drops off the front.
const MaxEntries = 4

// Entry records where playback stood when an episode was left.
type Entry struct {
	Episode    models.Episode
	Position   float64
	RecordedAt time.Time
}

// Stack is an append-only sequence with a cursor. Going back moves the
// cursor without removing entries, so repeated back-taps retrace history;
// recording while the cursor is off the tail prunes the abandoned forward
// branch first.
//
// Invariant: cursor points at a valid index, or -1 when empty.
type Stack struct {
	entries []Entry
	cursor  int
}

// New creates an empty history stack.
func New() *Stack {
	return &Stack{cursor: -1}
}

// Record appends an entry at the cursor and makes it the new tail.
func (s *Stack) Record(episode models.Episode, position float64) {
	// Branch truncation: discard anything after the cursor.
	if s.cursor < len(s.entries)-1 {
		s.entries = s.entries[:s.cursor+1]
	}

	s.entries = append(s.entries, Entry{
		Episode:    episode,
		Position:   position,
		RecordedAt: time.Now(),
	})

	if len(s.entries) > MaxEntries {
		drop := len(s.entries) - MaxEntries
		s.entries = s.entries[drop:]
	}

	s.cursor = len(s.entries) - 1
}

// UpdatePosition refreshes the position stored in the entry under the
// cursor, so the entry reflects where playback actually left off.
func (s *Stack) UpdatePosition(position float64) {
	if s.cursor >= 0 {
		s.entries[s.cursor].Position = position
		s.entries[s.cursor].RecordedAt = time.Now()
	}
}

// CanGoBack reports whether there is an earlier entry to return to.
func (s *Stack) CanGoBack() bool {
	return s.cursor > 0
}

// GoBack moves the cursor one entry toward the front and returns the entry
// now pointed to. Nothing is removed.
func (s *Stack) GoBack() (Entry, bool) {
	if !s.CanGoBack() {
		return Entry{}, false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Current returns the entry under the cursor.
func (s *Stack) Current() (Entry, bool) {
	if s.cursor < 0 {
		return Entry{}, false
	}
	return s.entries[s.cursor], true
}

// Len returns the number of stored entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the stored entries, oldest first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
