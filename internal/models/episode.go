package models

import (
	"strings"
)

// Episode is a single narrated episode from the remote catalog. Episodes are
// immutable once fetched; the catalog is the only source of truth for them.
type Episode struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Authors         string  `json:"authors"`
	Year            int     `json:"year"`
	Duration        string  `json:"duration"` // human label, e.g. "29 min"
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Description     string  `json:"description,omitempty"`
	AudioPath       string  `json:"audioPath"`
	TranscriptURL   string  `json:"transcriptUrl,omitempty"`
	PaperURL        string  `json:"paperUrl,omitempty"`
}

// EpisodesResponse is the versioned episode list returned by the catalog API.
type EpisodesResponse struct {
	Version  int       `json:"version"`
	Episodes []Episode `json:"episodes"`
}

// AudioURL resolves the episode's audio location against the catalog base URL.
func (e Episode) AudioURL(base string) string {
	return strings.TrimSuffix(base, "/") + e.AudioPath
}

// FileName is the stable local file name for the episode's audio bytes.
// Derived from the episode id so startup reconciliation can map files back
// to episodes without a separate state table.
func (e Episode) FileName() string {
	return SanitizeID(e.ID) + ".m4a"
}

// SanitizeID makes an episode id safe for use as a file name component.
func SanitizeID(id string) string {
	id = strings.ReplaceAll(id, "/", "-")
	return strings.ReplaceAll(id, ":", "-")
}
