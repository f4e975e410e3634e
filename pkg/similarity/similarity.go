// Package similarity provides the fuzzy text comparison used for novelty
// checking. Scores are normalized sequence-similarity ratios in [0, 1],
// computed locally with no semantic embeddings.
package similarity

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Ratio returns the similarity between a and b in [0, 1]. Comparison is
// case-insensitive. Symmetric, and Ratio(a, a) == 1.
func Ratio(a, b string) float64 {
	return levenshtein.Similarity(strings.ToLower(a), strings.ToLower(b), nil)
}

// MaxRatio returns the highest Ratio between text and any candidate.
// Returns 0 when candidates is empty.
func MaxRatio(text string, candidates []string) float64 {
	max := 0.0
	for _, c := range candidates {
		if r := Ratio(text, c); r > max {
			max = r
		}
	}
	return max
}

// AnyAbove reports whether any candidate's similarity to text exceeds
// threshold. Short-circuits on the first hit.
func AnyAbove(text string, candidates []string, threshold float64) bool {
	for _, c := range candidates {
		if Ratio(text, c) > threshold {
			return true
		}
	}
	return false
}
