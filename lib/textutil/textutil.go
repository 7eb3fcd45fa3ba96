package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName collapses a human-facing label (anchor text, spreadsheet
// column header) into a form that survives the formatting noise found on
// publisher pages: case, padding, non-breaking spaces, doubled blanks.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", " ")
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchAll reports whether every matcher occurs in the normalized name.
// Matchers are expected to be pre-normalized (lowercase, no whitespace).
func MatchAll(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if !strings.Contains(name, m) {
			return false
		}
	}
	return true
}

// MatchAny reports whether at least one matcher occurs in the
// normalized name.
func MatchAny(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
