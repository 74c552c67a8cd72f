// Package similarity provides the string comparisons used by duplicate matching rules.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// NormalizePhone removes every character that is not a digit.
// The result may be empty.
func NormalizePhone(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Normalize trims and case-folds a value before comparison
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Distance returns the Levenshtein edit distance between the normalized inputs
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(Normalize(a), Normalize(b))
}

// Similarity returns 1 - distance/max(len(a), len(b)) over the normalized inputs,
// counted in runes. Equal inputs return exactly 1.0 without computing a distance.
// Callers are expected to skip blank fields; a blank side scores 0.
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)

	return 1.0 - float64(distance)/float64(longest)
}

// AtLeast reports whether both values are present and their similarity meets threshold
func AtLeast(a, b string, threshold float64) bool {
	if IsBlank(a) || IsBlank(b) {
		return false
	}
	return Similarity(a, b) >= threshold
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
