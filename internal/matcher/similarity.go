package matcher

import (
	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized edit-distance ratio between two strings in
// [0, 1]: 1 - levenshtein(a, b) / max(len(a), len(b)). Identical strings
// score 1.0; strings with no characters in common score 0.0. Two empty
// strings are identical by definition and score 1.0, though callers matching
// on descriptions should skip empty ones entirely.
func Similarity(a, b string) float64 {
	aRunes := len([]rune(a))
	bRunes := len([]rune(b))

	maxLen := aRunes
	if bRunes > maxLen {
		maxLen = bRunes
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}
