// Package notes persists per-episode annotation documents: a metadata
// header, free-form notes, and timestamp-tagged comments, all in one
// structured text file per episode.
package notes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/strollcast/strollcast/internal/models"
)

// Store reads and writes annotation documents under a single directory,
// one file per episode. Writes are whole-document replacements; there is no
// locking, so callers serialize writes for a given episode (last write wins).
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates an annotation store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(episodeID string) string {
	return filepath.Join(s.dir, models.SanitizeID(episodeID)+".md")
}

// Read returns the episode's full document, or the empty string when none
// exists yet.
func (s *Store) Read(episode models.Episode) string {
	data, err := os.ReadFile(s.path(episode.ID))
	if err != nil {
		return ""
	}
	return string(data)
}

// Write atomically replaces the episode's document. The temp-then-rename
// dance keeps an interrupted write from ever truncating the header.
func (s *Store) Write(episode models.Episode, content string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create notes directory: %w", err)
	}

	path := s.path(episode.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write notes document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace notes document: %w", err)
	}
	return nil
}

// Has reports whether a document exists for the episode.
func (s *Store) Has(episode models.Episode) bool {
	_, err := os.Stat(s.path(episode.ID))
	return err == nil
}

// Ensure synthesizes a fresh document for the episode when none exists.
// Idempotent: an existing document is left untouched.
func (s *Store) Ensure(episode models.Episode) error {
	if s.Has(episode) {
		return nil
	}
	return s.Write(episode, NewDocument(episode))
}

// AddTimestampedComment inserts a timestamp-tagged line into the episode's
// document. Any existing tagged line within two seconds of t is removed
// first: one annotation per two-second neighborhood, most recent write wins.
func (s *Store) AddTimestampedComment(episode models.Episode, t float64, text string) error {
	if err := s.Ensure(episode); err != nil {
		return err
	}

	doc := s.Read(episode)
	updated := insertComment(doc, t, text)
	return s.Write(episode, updated)
}

// Comments returns the timestamp-tagged lines from the episode's document.
func (s *Store) Comments(episode models.Episode) []Comment {
	return ParseTimestampedComments(s.Read(episode))
}
