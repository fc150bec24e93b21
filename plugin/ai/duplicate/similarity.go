// Package duplicate decides whether two topic labels name the same interest.
package duplicate

import (
	"math"
	"strings"
)

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched, empty or zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
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

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp float rounding so callers can rely on [-1, 1].
	return math.Max(-1, math.Min(1, sim))
}

// MentionedKeywords returns the keywords contained in label, compared
// case-insensitively, in keyword order.
func MentionedKeywords(label string, keywords []string) []string {
	lower := strings.ToLower(label)

	var found []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" || seen[k] {
			continue
		}
		if strings.Contains(lower, k) {
			found = append(found, k)
			seen[k] = true
		}
	}
	return found
}

// sharesAny reports whether the two keyword sets intersect.
func sharesAny(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	for _, k := range b {
		if set[k] {
			return true
		}
	}
	return false
}
