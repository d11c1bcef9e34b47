package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// fuzzyCutoff is the minimum similarity for an approximate disease-name
// match.  Queries below it for every known name resolve to not-found.
const fuzzyCutoff = 0.6

// NormalizeToken converts a free-text symptom phrase into the index key form:
// trimmed, lowercased, spaces replaced with underscores.
func NormalizeToken(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// normalizeName lowercases and trims a disease name for case-insensitive
// comparison.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// similarity returns an edit-distance ratio in [0,1]: 1 for equal strings,
// 0 for nothing in common.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// closestMatch returns the candidate most similar to query, provided it
// clears the cutoff.  Candidates are expected pre-normalized; earlier
// candidates win ties.
func closestMatch(query string, candidates []string, cutoff float64) (string, bool) {
	best := ""
	bestScore := cutoff
	found := false
	for _, c := range candidates {
		if s := similarity(query, c); s > bestScore || (!found && s == bestScore) {
			best, bestScore, found = c, s, true
		}
	}
	return best, found
}
