package download

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/strollcast/strollcast/internal/models"
)

// Tracker owns the download state machine for every episode. Transfers for
// distinct episodes run concurrently; at most one transfer per episode id is
// in flight at a time.
type Tracker struct {
	dir        string
	downloader *Downloader
	logger     *slog.Logger

	mu      sync.Mutex
	states  map[string]State
	cancels map[string]transfer
	gen     uint64

	events chan Progress
}

// transfer identifies one in-flight attempt. The generation tag keeps a
// finished attempt's cleanup from removing the cancel func of a newer
// attempt started under the same episode id.
type transfer struct {
	cancel context.CancelFunc
	gen    uint64
}

// NewTracker creates a tracker rooted at dir and reconciles its state with
// the files already present: any completed audio file seeds a Complete
// record. There is no separate state table.
func NewTracker(dir string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		dir:        dir,
		downloader: NewDownloader(dir),
		logger:     logger,
		states:     make(map[string]State),
		cancels:    make(map[string]transfer),
		events:     make(chan Progress, 64),
	}
	t.scan()
	return t
}

// scan seeds Complete records from the files on disk.
func (t *Tracker) scan() {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), audioExt) {
			continue
		}
		episodeID := strings.TrimSuffix(entry.Name(), audioExt)
		t.states[episodeID] = State{
			Kind:      Complete,
			Fraction:  1,
			LocalPath: filepath.Join(t.dir, entry.Name()),
		}
	}
}

// Events returns the progress event channel. Events are emitted after the
// state change they describe. Slow consumers may miss intermediate progress
// fractions, but terminal transitions (Complete, Failed, NotStarted) are
// always delivered: a full buffer sheds progress events to make room.
func (t *Tracker) Events() <-chan Progress {
	return t.events
}

// State returns the current state for an episode.
func (t *Tracker) State(episodeID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[episodeID]
}

// All returns a snapshot of every tracked episode state.
func (t *Tracker) All() map[string]State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]State, len(t.states))
	for id, st := range t.states {
		out[id] = st
	}
	return out
}

// LocalPath returns the completed local file for an episode, if any.
func (t *Tracker) LocalPath(episodeID string) (string, bool) {
	st := t.State(episodeID)
	if st.Kind == Complete {
		return st.LocalPath, true
	}
	return "", false
}

// Start begins downloading an episode's audio from url. Calling Start while
// a transfer is already in progress, or when the episode is already
// downloaded, is a no-op. Start from Failed is the retry path.
func (t *Tracker) Start(episode models.Episode, url string) {
	t.mu.Lock()
	current := t.states[episode.ID]
	if current.Kind == InProgress || current.Kind == Complete {
		t.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.gen++
	gen := t.gen
	t.cancels[episode.ID] = transfer{cancel: cancel, gen: gen}
	t.setLocked(episode.ID, State{Kind: InProgress, Fraction: 0})
	t.mu.Unlock()

	go t.run(ctx, episode, url, gen)
}

func (t *Tracker) run(ctx context.Context, episode models.Episode, url string, gen uint64) {
	defer func() {
		t.mu.Lock()
		// Only remove our own entry; a newer attempt may have replaced it.
		if cur, ok := t.cancels[episode.ID]; ok && cur.gen == gen {
			delete(t.cancels, episode.ID)
		}
		t.mu.Unlock()
	}()

	onProgress := func(fraction float64) {
		t.mu.Lock()
		st := t.states[episode.ID]
		// Only InProgress records advance, and fractions never move backwards.
		if st.Kind == InProgress && fraction > st.Fraction {
			st.Fraction = fraction
			t.setLocked(episode.ID, st)
		}
		t.mu.Unlock()
	}

	localPath, err := t.downloader.Fetch(ctx, url, episode.FileName(), onProgress)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case err == nil:
		t.setLocked(episode.ID, State{Kind: Complete, Fraction: 1, LocalPath: localPath})
		t.logger.Info("download complete", "episode", episode.ID, "path", localPath)
	case errors.Is(err, context.Canceled):
		// Cancelled by the user: reset silently, no error surfaced.
		t.setLocked(episode.ID, State{Kind: NotStarted})
	default:
		t.setLocked(episode.ID, State{Kind: Failed, Message: err.Error()})
		t.logger.Warn("download failed", "episode", episode.ID, "error", err)
	}
}

// Cancel aborts an in-flight transfer and resets the record to NotStarted.
// Cancelling an absent or finished transfer is a no-op.
func (t *Tracker) Cancel(episodeID string) {
	t.mu.Lock()
	tr, ok := t.cancels[episodeID]
	t.mu.Unlock()
	if ok {
		tr.cancel()
	}
}

// Delete removes an episode's downloaded file and resets its record.
func (t *Tracker) Delete(episodeID string) error {
	t.Cancel(episodeID)

	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.states[episodeID]
	if st.Kind == Complete && st.LocalPath != "" {
		if err := os.Remove(st.LocalPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	t.setLocked(episodeID, State{Kind: NotStarted})
	return nil
}

// DeleteAll removes every downloaded file and resets all records.
func (t *Tracker) DeleteAll() error {
	t.mu.Lock()
	ids := make([]string, 0, len(t.states))
	for id := range t.states {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := t.Delete(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// TotalSize returns the combined size in bytes of all completed downloads.
func (t *Tracker) TotalSize() int64 {
	var total int64
	for _, st := range t.All() {
		if st.Kind != Complete {
			continue
		}
		if info, err := os.Stat(st.LocalPath); err == nil {
			total += info.Size()
		}
	}
	return total
}

// Count returns the number of completed downloads.
func (t *Tracker) Count() int {
	count := 0
	for _, st := range t.All() {
		if st.Kind == Complete {
			count++
		}
	}
	return count
}

// setLocked records a state and publishes it. Callers hold t.mu.
func (t *Tracker) setLocked(episodeID string, st State) {
	t.states[episodeID] = st
	t.publishLocked(Progress{EpisodeID: episodeID, State: st})
}

// publishLocked delivers a state event. Progress updates are best-effort
// and dropped when the buffer is full; terminal transitions are never
// dropped: buffered progress events are evicted to make room, and any
// evicted terminal transition for another episode is re-queued behind this
// one. Callers hold t.mu, so there is exactly one sender at a time.
func (t *Tracker) publishLocked(ev Progress) {
	if ev.State.Kind == InProgress {
		select {
		case t.events <- ev:
		default:
		}
		return
	}

	var displaced []Progress
	for {
		select {
		case t.events <- ev:
			for _, d := range displaced {
				select {
				case t.events <- d:
				default:
				}
			}
			return
		default:
		}
		select {
		case old := <-t.events:
			if old.State.Kind != InProgress {
				displaced = append(displaced, old)
			}
		default:
		}
	}
}
