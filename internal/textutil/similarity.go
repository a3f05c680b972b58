package textutil

import (
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"
)

var nonAlphanumericRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normalizeForMatch lowercases text and reduces punctuation runs to single
// spaces so "Artist - Title (Official Video)" compares on its words.
func normalizeForMatch(value string) string {
	value = strings.ToLower(CleanFileName(value))
	value = nonAlphanumericRe.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// MatchScore returns the Jaro-Winkler similarity in [0,1] between a search
// query and a result title after both are normalized. Empty inputs score 0.
func MatchScore(query, title string) float64 {
	q := normalizeForMatch(query)
	r := normalizeForMatch(title)
	if q == "" || r == "" {
		return 0
	}
	if q == r {
		return 1
	}
	sim, err := edlib.StringsSimilarity(q, r, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(sim)
}
