package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/strollcast/strollcast/internal/download"
	"github.com/strollcast/strollcast/internal/history"
	"github.com/strollcast/strollcast/internal/kv"
	"github.com/strollcast/strollcast/internal/links"
	"github.com/strollcast/strollcast/internal/models"
	"github.com/strollcast/strollcast/internal/notes"
	"github.com/strollcast/strollcast/internal/transcript"
)

// ErrNoHistory is returned by PreviousEpisode when there is nothing to go
// back to.
var ErrNoHistory = errors.New("no earlier episode in history")

// State is the playback session state.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind enumerates session notifications.
type EventKind int

const (
	// EventStateChanged fires after every state transition.
	EventStateChanged EventKind = iota
	// EventTick fires on every playback-position refresh.
	EventTick
	// EventChime fires when a referenced cue triggers its audible cue.
	EventChime
)

// Event is a session notification. Events are published after the state
// mutation they describe, never before.
type Event struct {
	Kind      EventKind
	State     State
	EpisodeID string
	Position  float64
	Duration  float64
	Message   string
}

// Status is a point-in-time snapshot of the session.
type Status struct {
	State      State
	Episode    models.Episode
	HasEpisode bool
	Position   float64
	Duration   float64
	CueIndex   int
	CueCount   int
	Err        string
}

// Catalog is the episode directory the session resolves ids and audio URLs
// against.
type Catalog interface {
	Lookup(id string) (models.Episode, error)
	BaseURL() string
}

// Options tunes session timing.
type Options struct {
	TickInterval  time.Duration
	SkipSeconds   float64
	GoBackSeconds float64
}

func (o *Options) fillDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = 500 * time.Millisecond
	}
	if o.SkipSeconds <= 0 {
		o.SkipSeconds = 15
	}
	if o.GoBackSeconds <= 0 {
		o.GoBackSeconds = 30
	}
}

// Deps are the collaborators a session drives. Transport and Catalog are
// required; the rest may be nil and the corresponding behavior is skipped.
type Deps struct {
	Transport   Transport
	Catalog     Catalog
	Store       *kv.Store
	Notes       *notes.Store
	Transcripts *transcript.Service
	Tracker     *download.Tracker
	History     *history.Stack
	Chimer      Chimer
	Logger      *slog.Logger
}

// Session orchestrates playback. All state lives on a single event-loop
// goroutine: public methods post commands onto it, and the periodic tick and
// transport events are serialized onto the same loop, so no two mutations
// ever race.
type Session struct {
	deps Deps
	opts Options

	commands chan func()
	events   chan Event
	done     chan struct{}
	stopped  chan struct{}
	closed   sync.Once

	// Loop-goroutine state. Never touched from outside run().
	state         State
	episode       models.Episode
	hasEpisode    bool
	position      float64
	duration      float64
	pendingResume float64
	errMsg        string
	index         *transcript.Index
	triggers      *links.Triggers
}

const (
	lastEpisodeKey = "last_episode"
)

func resumeKey(episodeID string) string { return "resume." + episodeID }
func pausedKey(episodeID string) string { return "paused." + episodeID }

// NewSession creates a session and starts its event loop.
func NewSession(deps Deps, opts Options) *Session {
	opts.fillDefaults()
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.History == nil {
		deps.History = history.New()
	}
	s := &Session{
		deps:     deps,
		opts:     opts,
		commands: make(chan func(), 16),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		state:    Idle,
		triggers: links.NewTriggers(),
	}
	go s.run()
	return s
}

// Events returns the session notification channel. Slow consumers may miss
// intermediate events; sends never block the loop.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Close stops the event loop and tears down the transport, returning once
// both are done. Idempotent.
func (s *Session) Close() {
	s.closed.Do(func() { close(s.done) })
	<-s.stopped
}

func (s *Session) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	transportEvents := s.deps.Transport.Events()
	for {
		select {
		case <-s.done:
			_ = s.deps.Transport.Close()
			return
		case cmd := <-s.commands:
			cmd()
		case <-ticker.C:
			s.tick()
		case ev, ok := <-transportEvents:
			if !ok {
				transportEvents = nil
				continue
			}
			s.handleTransportEvent(ev)
		}
	}
}

// post schedules fn onto the event loop.
func (s *Session) post(fn func()) {
	select {
	case s.commands <- fn:
	case <-s.done:
	}
}

// call runs fn on the event loop and waits for it to finish.
func (s *Session) call(fn func()) {
	ran := make(chan struct{})
	s.post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-s.done:
	}
}

func (s *Session) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Session) setState(state State) {
	s.state = state
	s.publish(Event{
		Kind:      EventStateChanged,
		State:     state,
		EpisodeID: s.episode.ID,
		Position:  s.position,
		Duration:  s.duration,
		Message:   s.errMsg,
	})
}

// Snapshot returns the current session status.
func (s *Session) Snapshot() Status {
	var st Status
	s.call(func() {
		st = Status{
			State:      s.state,
			Episode:    s.episode,
			HasEpisode: s.hasEpisode,
			Position:   s.position,
			Duration:   s.duration,
			CueIndex:   -1,
			Err:        s.errMsg,
		}
		if s.index != nil {
			st.CueCount = len(s.index.Cues())
			st.CueIndex = s.index.Lookup(s.position)
		}
	})
	return st
}

// Load switches the session to episode, implicitly stopping whatever was
// playing. The episode being left keeps its last known position in its
// history entry; when addToHistory is set the new episode is recorded,
// pruning any forward branch.
func (s *Session) Load(episode models.Episode, addToHistory bool) {
	s.post(func() { s.load(episode, addToHistory, -1) })
}

// load runs on the event loop. resumeOverride >= 0 replaces the saved
// resumable position (used when retracing history).
func (s *Session) load(episode models.Episode, addToHistory bool, resumeOverride float64) {
	if s.hasEpisode {
		// The episode being left keeps its last known position in history.
		if cur, ok := s.deps.History.Current(); ok && cur.Episode.ID == s.episode.ID {
			s.deps.History.UpdatePosition(s.position)
		}
	}
	s.stopPlayback()

	s.episode = episode
	s.hasEpisode = true
	s.triggers.Reset()

	s.pendingResume = 0
	if s.deps.Store != nil {
		if v, err := s.deps.Store.Float(resumeKey(episode.ID)); err == nil {
			s.pendingResume = v
		}
		if err := s.deps.Store.Set(lastEpisodeKey, episode.ID); err != nil {
			s.deps.Logger.Warn("failed to record last episode", "error", err)
		}
	}
	if resumeOverride >= 0 {
		s.pendingResume = resumeOverride
	}
	if addToHistory {
		s.deps.History.Record(episode, s.pendingResume)
	}

	s.loadTranscript(episode)

	uri := s.sourceURI(episode)
	s.setState(Loading)
	s.deps.Logger.Info("loading episode", "episode", episode.ID, "uri", uri)

	if err := s.deps.Transport.Load(uri); err != nil {
		s.errMsg = err.Error()
		s.setState(Failed)
	}
}

// sourceURI prefers a completed local download over the remote URL. A
// download finishing mid-playback does not switch the live source; the next
// load picks it up.
func (s *Session) sourceURI(episode models.Episode) string {
	if s.deps.Tracker != nil {
		if local, ok := s.deps.Tracker.LocalPath(episode.ID); ok {
			return local
		}
	}
	return episode.AudioURL(s.deps.Catalog.BaseURL())
}

func (s *Session) loadTranscript(episode models.Episode) {
	s.index = nil
	if s.deps.Transcripts == nil {
		return
	}
	go func() {
		cues := s.deps.Transcripts.Load(context.Background(), episode)
		s.post(func() {
			if s.hasEpisode && s.episode.ID == episode.ID {
				s.index = transcript.NewIndex(cues)
			}
		})
	}()
}

func (s *Session) handleTransportEvent(ev TransportEvent) {
	switch ev.Kind {
	case TransportReady:
		if s.state != Loading {
			return
		}
		s.duration = s.deps.Transport.Duration()
		if s.pendingResume > 0 && s.pendingResume < s.duration {
			if err := s.deps.Transport.Seek(s.pendingResume); err == nil {
				s.position = s.pendingResume
			}
		}
		s.pendingResume = 0
		s.setState(Ready)

	case TransportEnded:
		if !s.hasEpisode {
			return
		}
		s.position = 0
		if s.deps.Store != nil {
			// A finished episode has no resume point.
			_ = s.deps.Store.Delete(resumeKey(s.episode.ID))
			_ = s.deps.Store.Delete(pausedKey(s.episode.ID))
		}
		s.setState(Completed)

	case TransportFailed:
		s.errMsg = ev.Message
		s.setState(Failed)
	}
}

func (s *Session) tick() {
	if s.state != Playing {
		return
	}
	s.position = s.deps.Transport.Position()
	if d := s.deps.Transport.Duration(); d > 0 {
		s.duration = d
	}
	s.publish(Event{
		Kind:      EventTick,
		State:     s.state,
		EpisodeID: s.episode.ID,
		Position:  s.position,
		Duration:  s.duration,
	})
	s.checkTriggers()
}

func (s *Session) checkTriggers() {
	if s.index == nil {
		return
	}
	idx := s.index.Lookup(s.position)
	if idx < 0 {
		return
	}
	cue := s.index.Cues()[idx]
	if !s.triggers.ShouldChime(s.episode.ID, idx, s.position, cue) {
		return
	}
	if s.deps.Chimer != nil {
		s.deps.Chimer.Chime()
	}
	s.publish(Event{
		Kind:      EventChime,
		State:     s.state,
		EpisodeID: s.episode.ID,
		Position:  s.position,
		Duration:  s.duration,
	})
}

// Play starts or resumes playback. Valid from Ready and Paused; anything
// else is a no-op.
func (s *Session) Play() {
	s.post(func() {
		if s.state != Ready && s.state != Paused {
			return
		}
		if err := s.deps.Transport.Play(); err != nil {
			s.errMsg = err.Error()
			s.setState(Failed)
			return
		}
		episode := s.episode
		if s.deps.Notes != nil {
			// Fire-and-forget: the note document exists by the time the
			// listener reaches for it, and a failed write is retried on the
			// next explicit note operation.
			go func() {
				if err := s.deps.Notes.Ensure(episode); err != nil {
					s.deps.Logger.Warn("failed to ensure note document", "episode", episode.ID, "error", err)
				}
			}()
		}
		if s.deps.Store != nil {
			_ = s.deps.Store.Delete(pausedKey(episode.ID))
		}
		s.setState(Playing)
	})
}

// Pause suspends playback and persists the resumable position.
func (s *Session) Pause() {
	s.post(func() {
		if s.state != Playing {
			return
		}
		if err := s.deps.Transport.Pause(); err != nil {
			s.errMsg = err.Error()
			s.setState(Failed)
			return
		}
		s.position = s.deps.Transport.Position()
		if s.deps.Store != nil {
			if err := s.deps.Store.SetFloat(resumeKey(s.episode.ID), s.position); err != nil {
				s.deps.Logger.Warn("failed to save resume position", "episode", s.episode.ID, "error", err)
			}
			_ = s.deps.Store.Set(pausedKey(s.episode.ID), time.Now().UTC().Format(time.RFC3339))
		}
		s.setState(Paused)
	})
}

// Stop resets the session to Idle. No history entry is recorded; only Load
// records history.
func (s *Session) Stop() {
	s.post(func() {
		s.stopPlayback()
		s.setState(Idle)
	})
}

// stopPlayback runs on the event loop: it quiesces the transport and clears
// all transient fields. Idempotent.
func (s *Session) stopPlayback() {
	if s.state == Playing {
		_ = s.deps.Transport.Pause()
	}
	s.state = Idle
	s.episode = models.Episode{}
	s.hasEpisode = false
	s.position = 0
	s.duration = 0
	s.pendingResume = 0
	s.errMsg = ""
	s.index = nil
}

// Seek moves playback to seconds, clamped into [0, duration].
func (s *Session) Seek(seconds float64) {
	s.post(func() { s.seek(seconds) })
}

func (s *Session) seek(seconds float64) {
	if !s.hasEpisode {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	if err := s.deps.Transport.Seek(seconds); err != nil {
		s.deps.Logger.Warn("seek failed", "episode", s.episode.ID, "error", err)
		return
	}
	s.position = seconds
}

// SkipForward jumps ahead by the configured skip offset.
func (s *Session) SkipForward() {
	s.post(func() { s.seek(s.position + s.opts.SkipSeconds) })
}

// SkipBack jumps back by the configured skip offset.
func (s *Session) SkipBack() {
	s.post(func() { s.seek(s.position - s.opts.SkipSeconds) })
}

// GoBackCommand is the coarse "go back" jump, larger than a skip.
func (s *Session) GoBackCommand() {
	s.post(func() { s.seek(s.position - s.opts.GoBackSeconds) })
}

// AddComment writes a timestamped comment into the current episode's note
// document at the current playback position.
func (s *Session) AddComment(text string) error {
	var err error
	s.call(func() {
		if !s.hasEpisode {
			err = errors.New("no episode loaded")
			return
		}
		if s.deps.Notes == nil {
			return
		}
		err = s.deps.Notes.AddTimestampedComment(s.episode, s.position, text)
	})
	return err
}

// GoToReference resolves the reference embedded in the currently active cue
// and switches the session to the target episode. Errors carry the specific
// user-facing reason.
func (s *Session) GoToReference() error {
	var err error
	s.call(func() { err = s.goToReference() })
	return err
}

func (s *Session) goToReference() error {
	if !s.hasEpisode || s.index == nil || len(s.index.Cues()) == 0 {
		return links.ErrNoTranscript
	}
	idx := s.index.Lookup(s.position)
	if idx < 0 {
		return links.ErrNoCue
	}
	ref, ok := links.FindReference(s.index.Cues()[idx].Text)
	if !ok {
		return links.ErrNoReference
	}
	id, err := links.Resolve(ref.URL)
	if err != nil {
		return err
	}
	target, err := s.deps.Catalog.Lookup(id)
	if err != nil {
		return fmt.Errorf("%w: %s", links.ErrNotFound, id)
	}
	s.load(target, true, -1)
	return nil
}

// PreviousEpisode retraces history one step and reloads that episode at the
// position it was left. The retrace itself is not recorded.
func (s *Session) PreviousEpisode() error {
	var err error
	s.call(func() {
		entry, ok := s.deps.History.GoBack()
		if !ok {
			err = ErrNoHistory
			return
		}
		s.load(entry.Episode, false, entry.Position)
	})
	return err
}
