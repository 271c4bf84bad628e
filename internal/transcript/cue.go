// Package transcript parses cue-timed transcript documents and answers
// point-in-time lookups against them.
package transcript

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Cue is a single time-bounded unit of transcript text. Start and End are
// seconds from the beginning of the episode.
type Cue struct {
	Start   float64
	End     float64
	Speaker string
	Text    string
}

const rangeSeparator = "-->"

// Parse reads a cue-timed document: blocks of a time range line
// ("start --> end") followed by text lines, separated by blank lines.
// Malformed input yields an empty cue list, never an error; the rest of the
// system treats a missing transcript as a degraded mode.
func Parse(r io.Reader) []Cue {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	var cues []Cue
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, rangeSeparator) {
			continue
		}

		parts := strings.SplitN(line, rangeSeparator, 2)
		if len(parts) != 2 {
			continue
		}
		start := ParseTimestamp(strings.TrimSpace(parts[0]))
		end := ParseTimestamp(strings.TrimSpace(parts[1]))

		// Greedily collect text lines until a blank line or the next range line.
		var textLines []string
		for i+1 < len(lines) {
			next := lines[i+1]
			if strings.TrimSpace(next) == "" {
				break
			}
			if strings.Contains(next, rangeSeparator) {
				break
			}
			textLines = append(textLines, next)
			i++
		}

		raw := strings.TrimSpace(strings.Join(textLines, " "))
		if raw == "" {
			continue
		}

		speaker, text := extractSpeaker(raw)
		cues = append(cues, Cue{Start: start, End: end, Speaker: speaker, Text: text})
	}

	return cues
}

// ParseTimestamp parses "[HH:]MM:SS[.mmm]" into seconds. The hours segment is
// optional; unparseable segments contribute zero.
func ParseTimestamp(ts string) float64 {
	parts := strings.Split(ts, ":")
	var seconds float64

	switch len(parts) {
	case 3:
		seconds += parseFloat(parts[0]) * 3600
		seconds += parseFloat(parts[1]) * 60
		seconds += parseFloat(parts[2])
	case 2:
		seconds += parseFloat(parts[0]) * 60
		seconds += parseFloat(parts[1])
	}

	return seconds
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// extractSpeaker pulls a leading "<v Speaker>" voice tag off the cue text.
func extractSpeaker(text string) (speaker, remaining string) {
	if !strings.HasPrefix(text, "<v ") {
		return "", text
	}
	end := strings.IndexByte(text, '>')
	if end < 0 {
		return "", text
	}
	speaker = text[3:end]
	remaining = strings.TrimSpace(text[end+1:])
	return speaker, remaining
}
