// Package links detects cross-episode references embedded in transcript
// cues and resolves them to catalog episode ids.
package links

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Resolution failures carry a specific, user-facing reason.
var (
	ErrNoTranscript  = errors.New("no transcript for this episode")
	ErrNoCue         = errors.New("no active transcript cue")
	ErrNoReference   = errors.New("current cue has no reference")
	ErrInvalidFormat = errors.New("reference URL has an unexpected format")
	ErrNotFound      = errors.New("referenced episode not found")
)

// Reference is an embedded cross-episode link pulled out of cue text.
type Reference struct {
	Label string
	URL   string
}

var referencePattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// FindReference returns the first "[label](url)" reference in text.
func FindReference(text string) (Reference, bool) {
	m := referencePattern.FindStringSubmatch(text)
	if m == nil {
		return Reference{}, false
	}
	return Reference{Label: m[1], URL: m[2]}, true
}

// Resolve extracts the target episode id from a reference URL. The path is
// expected to end in ".../episodes/{episodeId}/{episodeId}.<ext>"; anything
// else fails with ErrInvalidFormat rather than guessing.
func Resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidFormat
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 {
		return "", ErrInvalidFormat
	}

	parent := segments[len(segments)-3]
	dir := segments[len(segments)-2]
	file := segments[len(segments)-1]

	if parent != "episodes" || dir == "" {
		return "", ErrInvalidFormat
	}

	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		return "", ErrInvalidFormat
	}
	if file[:dot] != dir {
		return "", ErrInvalidFormat
	}

	return dir, nil
}
