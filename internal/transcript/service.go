package transcript

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/strollcast/strollcast/internal/models"
)

// Service fetches, caches, and parses transcripts. Parsed cues are cached in
// memory per episode id for the process lifetime; fetched documents are
// persisted under cacheDir so later runs skip the network.
//
// Every failure mode degrades to "no transcript"; a missing transcript is
// never an error the player has to handle.
type Service struct {
	cacheDir string
	client   *http.Client
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string][]Cue
}

// NewService creates a transcript service persisting documents in cacheDir.
func NewService(cacheDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cacheDir: cacheDir,
		client:   &http.Client{},
		logger:   logger,
		cache:    make(map[string][]Cue),
	}
}

func (s *Service) localPath(episodeID string) string {
	return filepath.Join(s.cacheDir, models.SanitizeID(episodeID)+".vtt")
}

// Load returns the parsed cues for an episode, or nil when no transcript is
// available. A cached local copy that does not decode as text, or that
// parses to zero cues, is treated as corrupt: it is discarded and a fresh
// remote fetch is attempted once.
func (s *Service) Load(ctx context.Context, episode models.Episode) []Cue {
	s.mu.Lock()
	if cached, ok := s.cache[episode.ID]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	local := s.localPath(episode.ID)
	if data, err := os.ReadFile(local); err == nil {
		if utf8.Valid(data) {
			cues := Parse(strings.NewReader(string(data)))
			if len(cues) > 0 {
				s.store(episode.ID, cues)
				return cues
			}
		}
		// Corrupt or empty local copy; discard and refetch once.
		s.logger.Warn("discarding unusable cached transcript", "episode", episode.ID, "path", local)
		_ = os.Remove(local)
	}

	cues := s.fetch(ctx, episode)
	s.store(episode.ID, cues)
	return cues
}

func (s *Service) store(episodeID string, cues []Cue) {
	s.mu.Lock()
	s.cache[episodeID] = cues
	s.mu.Unlock()
}

func (s *Service) fetch(ctx context.Context, episode models.Episode) []Cue {
	if episode.TranscriptURL == "" {
		return nil
	}

	content, err := s.download(ctx, episode.TranscriptURL)
	if err != nil {
		s.logger.Warn("transcript fetch failed", "episode", episode.ID, "error", err)
		return nil
	}

	if err := s.save(episode.ID, content); err != nil {
		// Persisting the document is best-effort; the parsed cues still count.
		s.logger.Warn("failed to cache transcript", "episode", episode.ID, "error", err)
	}

	return Parse(strings.NewReader(content))
}

func (s *Service) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript body: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("transcript is not valid UTF-8")
	}

	return string(data), nil
}

func (s *Service) save(episodeID, content string) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}
	path := s.localPath(episodeID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
