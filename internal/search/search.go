// Package search ranks catalog episodes against a fuzzy query.
package search

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/strollcast/strollcast/internal/models"
)

// Score threshold constants (based on raw fzf scores)
const (
	ScoreThresholdNormal = 50
	ScoreThresholdNone   = 0
)

// Match pairs an episode with its best fuzzy score.
type Match struct {
	Episode models.Episode
	Score   int
}

// Matcher scores episode titles and authors against a query with the fzf
// v2 algorithm, case-insensitively.
type Matcher struct {
	query    string
	minScore int
	slab     *util.Slab
}

// NewMatcher creates a matcher for query.
func NewMatcher(query string) *Matcher {
	algo.Init("default")
	return &Matcher{
		query:    query,
		minScore: ScoreThresholdNormal,
		slab:     util.MakeSlab(16384, 1024),
	}
}

func (m *Matcher) score(text string) int {
	if m.query == "" {
		return 0
	}

	chars := util.ToChars([]byte(strings.ToLower(text)))
	pattern := []rune(strings.ToLower(m.query))

	result, _ := algo.FuzzyMatchV2(false, false, true, &chars, pattern, false, m.slab)
	if result.Start < 0 {
		return -1
	}
	return result.Score
}

// Match returns the episode's best score across title and authors, and
// whether it clears the threshold. An empty query matches everything.
func (m *Matcher) Match(episode models.Episode) (int, bool) {
	if m.query == "" {
		return 0, true
	}

	best := -1
	for _, text := range []string{episode.Title, episode.Authors} {
		if s := m.score(text); s > best {
			best = s
		}
	}

	if best < 0 || (m.minScore > 0 && best < m.minScore) {
		return best, false
	}
	return best, true
}

// Rank filters episodes by the query and returns them best-first.
func Rank(query string, episodes []models.Episode) []Match {
	matcher := NewMatcher(query)

	var matches []Match
	for _, episode := range episodes {
		if score, ok := matcher.Match(episode); ok {
			matches = append(matches, Match{Episode: episode, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
