// Package matcher scores reported items against counterpart candidates and
// ranks the best matches.
package matcher

import (
	"math"
	"strings"
	"unicode/utf8"
)

// tokenize splits a text field into its comparable token set: whitespace
// splitting, lower-casing, tokens of up to 2 runes dropped.
func tokenize(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, token := range fields {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard index of two token sets. Returns 0 when
// either set is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var intersection int
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// cosineSimilarity calculates cosine similarity between two vectors.
// Returns 0 on length mismatch or zero norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// clampScore bounds a composite score to [0,100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
