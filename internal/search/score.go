package search

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

const (
	containsBonus     = 0.5
	recencyBonusMax   = 0.2
	recencyWindowDays = 30
	tokenBonus        = 0.3
)

// filenameScore ranks a filename against the query text: normalized fuzzy
// similarity, a flat bonus when the filename contains the query substring
// case-insensitively, and a recency bonus decaying linearly to zero over
// thirty days since modification.
func filenameScore(query, name string, modified time.Time, threshold float64) float64 {
	q := strings.ToLower(query)
	n := strings.ToLower(name)

	sim := similarity(q, n)
	var score float64
	if sim >= threshold {
		score = sim
	}
	if strings.Contains(n, q) {
		score += containsBonus
	}

	age := time.Since(modified)
	window := recencyWindowDays * 24 * time.Hour
	if age >= 0 && age < window {
		score += recencyBonusMax * (1 - age.Seconds()/window.Seconds())
	}
	return score
}

// contentScore ranks extracted or grepped content: occurrence frequency
// normalized by content length, plus a flat bonus when any
// whitespace-delimited token contains the query substring.
func contentScore(query, content string) float64 {
	if len(content) == 0 || len(query) == 0 {
		return 0
	}
	q := strings.ToLower(query)
	c := strings.ToLower(content)

	occurrences := strings.Count(c, q)
	score := float64(occurrences*len(q)) / float64(len(c))

	for _, tok := range strings.Fields(c) {
		if strings.Contains(tok, q) {
			score += tokenBonus
			break
		}
	}
	return score
}

// similarity is Levenshtein distance normalized to [0,1], where 1 means
// identical strings.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
