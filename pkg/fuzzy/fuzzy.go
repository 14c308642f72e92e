// Package fuzzy provides a generic ranked string-similarity matcher used
// for object-phrase resolution and verb autocorrect suggestions.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a candidate string with its similarity to the query.
type Match struct {
	Value string
	Score float64 // 0.0–1.0, higher is closer
}

// Matcher ranks candidate strings against a query. Threshold filters out
// weak matches; MaxResults caps the returned slice (0 means unlimited).
type Matcher struct {
	Threshold  float64
	MaxResults int
}

// NewMatcher creates a matcher with the given similarity threshold and
// result cap.
func NewMatcher(threshold float64, maxResults int) *Matcher {
	return &Matcher{Threshold: threshold, MaxResults: maxResults}
}

// Similarity computes a normalized similarity between two strings.
// Equal strings score 1.0. A substring relationship scores at least 0.8,
// scaled by relative length, so "lamp" matches "brass lamp" strongly.
// Otherwise the score is 1 - editDistance/maxLen.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 0.8 + 0.2*float64(len(shorter))/float64(len(longer))
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(len(longer))
}

// Match ranks the candidates against the query, dropping those below the
// threshold. Ordering is deterministic: descending score, then original
// candidate order for ties.
func (m *Matcher) Match(query string, candidates []string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := Similarity(query, c)
		if score >= m.Threshold {
			matches = append(matches, Match{Value: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if m.MaxResults > 0 && len(matches) > m.MaxResults {
		matches = matches[:m.MaxResults]
	}
	return matches
}

// Best returns the single highest-scoring match, or false if none clears
// the threshold.
func (m *Matcher) Best(query string, candidates []string) (Match, bool) {
	matches := m.Match(query, candidates)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}
