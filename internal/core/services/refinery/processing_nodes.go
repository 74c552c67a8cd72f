package refinery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multipleWhitespace = regexp.MustCompile(`\s+`)

// RemoveInvisible drops control and format characters such as BOMs and zero-width spaces.
// Tabs and newlines become spaces first so words stay apart.
func RemoveInvisible(text string) string {
	text = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, text)

	t := runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
	}))
	result, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return result
}

// NormalizeNFC composes decomposed accents so equal-looking strings compare equal
func NormalizeNFC(text string) string {
	return norm.NFC.String(text)
}

// RemoveMultipleWhitespace collapses runs of whitespace into one space and trims the ends
func RemoveMultipleWhitespace(text string) string {
	return strings.TrimSpace(multipleWhitespace.ReplaceAllString(text, " "))
}

// TrimSpace trims leading and trailing whitespace only
func TrimSpace(text string) string {
	return strings.TrimSpace(text)
}

// FoldAccents strips combining marks, e.g. "José" becomes "Jose"
func FoldAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return result
}
