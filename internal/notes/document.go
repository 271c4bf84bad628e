package notes

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/strollcast/strollcast/internal/models"
)

// Tolerance is the neighborhood, in seconds, within which two annotation
// timestamps are treated as referring to the same moment.
const Tolerance = 2.0

const notesHeading = "## Notes"

// Comment is a timestamp-tagged annotation parsed out of a document body.
type Comment struct {
	Time float64
	Text string
}

// Tagged comment lines look like "[1:05] text" or "[1:02:05] text".
var commentPattern = regexp.MustCompile(`^\[(\d+):(\d{2})(?::(\d{2}))?\] ?(.*)$`)

// NewDocument synthesizes the initial annotation document for an episode:
// an identity header followed by an empty notes section.
func NewDocument(episode models.Episode) string {
	return fmt.Sprintf(`---
id: %s
title: %s
authors: %s
year: %d
duration: %s
audioPath: %s
paperUrl: %s
---

# %s

%s

`, episode.ID, episode.Title, episode.Authors, episode.Year,
		episode.Duration, episode.AudioPath, episode.PaperURL,
		episode.Title, notesHeading)
}

// ParseTimestampedComments extracts the timestamp-tagged lines from a
// document. Untagged lines are ignored.
func ParseTimestampedComments(doc string) []Comment {
	var comments []Comment
	for _, line := range strings.Split(doc, "\n") {
		if t, text, ok := parseCommentLine(line); ok {
			comments = append(comments, Comment{Time: t, Text: text})
		}
	}
	return comments
}

func parseCommentLine(line string) (float64, string, bool) {
	m := commentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}

	var seconds float64
	if m[3] != "" {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		seconds = float64(h*3600 + min*60 + sec)
	} else {
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		seconds = float64(min*60 + sec)
	}

	return seconds, m[4], true
}

// FormatTimestamp renders seconds as "M:SS", or "H:MM:SS" past an hour.
func FormatTimestamp(t float64) string {
	total := int(t)
	if total < 0 {
		total = 0
	}
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// insertComment removes any tagged line within Tolerance of t, then inserts
// the new tagged line immediately after the notes heading. All other content
// is preserved as-is.
func insertComment(doc string, t float64, text string) string {
	lines := strings.Split(doc, "\n")

	kept := lines[:0]
	for _, line := range lines {
		if existing, _, ok := parseCommentLine(line); ok && math.Abs(existing-t) <= Tolerance {
			continue
		}
		kept = append(kept, line)
	}

	tagged := fmt.Sprintf("[%s] %s", FormatTimestamp(t), text)

	insertAt := -1
	for i, line := range kept {
		if strings.TrimSpace(line) == notesHeading {
			insertAt = i + 1
			// Keep the blank line that follows the heading above the comment.
			if insertAt < len(kept) && strings.TrimSpace(kept[insertAt]) == "" {
				insertAt++
			}
			break
		}
	}

	if insertAt < 0 {
		// No notes heading; append at the end of the document.
		if len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
			kept = append(kept[:len(kept)-1], tagged, "")
		} else {
			kept = append(kept, tagged)
		}
		return strings.Join(kept, "\n")
	}

	out := make([]string, 0, len(kept)+1)
	out = append(out, kept[:insertAt]...)
	out = append(out, tagged)
	out = append(out, kept[insertAt:]...)
	return strings.Join(out, "\n")
}
