// Package player drives audio playback. Transport is the audio output
// primitive; Session orchestrates playback state, position persistence,
// transcript-cue triggers, and episode navigation on top of it.
package player

import (
	"fmt"
	"io"
	"os"
)

// TransportEventKind enumerates the events a transport reports back.
type TransportEventKind int

const (
	// TransportReady means the loaded media is ready to play.
	TransportReady TransportEventKind = iota
	// TransportEnded means playback reached the natural end of the media.
	TransportEnded
	// TransportFailed means the media could not be loaded or played.
	TransportFailed
)

// TransportEvent is an asynchronous notification from the audio output.
type TransportEvent struct {
	Kind    TransportEventKind
	Message string
}

// Transport is the audio output primitive the session drives. Position and
// Duration are best-effort reads in seconds; implementations may return a
// cached value when the backend cannot answer immediately.
type Transport interface {
	Load(uri string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	Events() <-chan TransportEvent
	Close() error
}

// Chimer plays the short audible cue when a referenced transcript cue
// triggers.
type Chimer interface {
	Chime()
}

// TerminalBell is the default Chimer: it rings the terminal bell.
type TerminalBell struct {
	Out io.Writer
}

func (b TerminalBell) Chime() {
	out := b.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprint(out, "\a")
}
