package rules

import (
	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Similarity scores two names in [0, 1] after NFC folding; equal strings
// score 1. Shared prefixes get the Winkler bonus.
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(norm.NFC.String(a), norm.NFC.String(b), nil)
}

// Suggest picks the candidate most similar to got, provided the score reaches
// threshold. Ties keep the earlier candidate; got itself is never suggested.
func Suggest(got string, candidates []string, threshold float64) (string, bool) {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if c == got || c == "" {
			continue
		}
		if s := Similarity(got, c); s >= threshold && s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, best != ""
}
