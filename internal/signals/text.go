// Package signals holds the pure, order-independent predicates that score a
// single line of text: heading likeness, table-of-contents leaders, metadata
// boilerplate, dates, noise, numbering and script.
package signals

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC, folds line breaks into spaces and trims.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}

// Collapse normalizes and squeezes internal whitespace runs to one space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(Normalize(s)), " ")
}

// Key is the comparison form used for deduplication.
func Key(s string) string {
	return strings.ToLower(Collapse(s))
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// HasLetter reports whether s contains any letter in any script.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// HasDigit reports whether s contains a decimal digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// IsUpper reports whether s has at least one cased letter and no lower-case
// letters.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if isCased(r) {
			cased = true
		}
	}
	return cased
}

// IsTitle reports whether every run of cased letters starts with an upper-case
// letter followed only by lower-case ones, and at least one run exists.
// "Proposal Summary" and "1. Introduction" qualify; "Proposal summary" does not.
func IsTitle(s string) bool {
	prevCased := false
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// hasRunOf reports whether any rune repeats n or more times consecutively.
func hasRunOf(s string, n int) bool {
	var prev rune
	count := 0
	for i, r := range s {
		if i > 0 && r == prev {
			count++
		} else {
			count = 1
		}
		if count >= n {
			return true
		}
		prev = r
	}
	return false
}
