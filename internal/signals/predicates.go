package signals

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberedPrefix = regexp.MustCompile(`^\d+(\.\d+)*\s`)
	dottedLeader   = regexp.MustCompile(`\.{2,}\s*\d+$`)
	dotRun         = regexp.MustCompile(`\.{2,}`)
	tocWord        = regexp.MustCompile(`\btoc\b`)
)

// metadataKeywords mark version, copyright and page-number boilerplate.
var metadataKeywords = []string{
	"version", "copyright", "page", "approved", "remarks", "date", "of 12",
}

// sentenceFinal is the punctuation that ends a body sentence in the supported
// non-Latin scripts.
var sentenceFinal = []string{"।", "॥", ".", ":"}

// IsDottedLeader reports whether text ends in a run of dots and a page number.
func IsDottedLeader(text string) bool {
	return dottedLeader.MatchString(strings.TrimSpace(text))
}

// IsTOCLine reports whether text looks like a table-of-contents entry.
func IsTOCLine(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if strings.HasPrefix(t, "table of contents") || tocWord.MatchString(t) {
		return true
	}
	if dotRun.MatchString(t) || dottedLeader.MatchString(t) {
		return true
	}
	return endsInSmallInt(t)
}

// endsInSmallInt reports whether the last whitespace token is an integer 1..20.
func endsInSmallInt(t string) bool {
	fields := strings.Fields(t)
	if len(fields) < 2 {
		return false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	return err == nil && n >= 1 && n <= 20
}

// IsMetadataLine reports whether text carries document boilerplate keywords.
func IsMetadataLine(text string) bool {
	t := strings.ToLower(text)
	for _, k := range metadataKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// IsNumbered reports whether text starts with a section number and a space.
func IsNumbered(text string) bool {
	return numberedPrefix.MatchString(strings.TrimSpace(text))
}

// Rules is the rule-based heading predicate.
type Rules struct {
	// NonLatinMaxWords is the word limit for Devanagari and Telugu lines.
	NonLatinMaxWords int
	// BoldMinSize is the size from which a bold font alone marks a heading.
	BoldMinSize float64
}

// DefaultRules returns the thresholds used for structured documents.
func DefaultRules() Rules {
	return Rules{NonLatinMaxWords: 10, BoldMinSize: 11}
}

// IsHeading implements HeadingPredicate.
func (r Rules) IsHeading(text, font string, size float64) bool {
	text = strings.TrimSpace(text)
	words := WordCount(text)
	if text == "" || words > 15 {
		return false
	}

	if DetectScript(text) != Latin {
		if numberedPrefix.MatchString(text) {
			return true
		}
		if words > r.NonLatinMaxWords {
			return false
		}
		for _, p := range sentenceFinal {
			if strings.HasSuffix(text, p) {
				return false
			}
		}
		return true
	}

	switch {
	case numberedPrefix.MatchString(text):
		return true
	case IsUpper(text):
		return true
	case IsTitle(text) && words <= 8:
		return true
	case size >= r.BoldMinSize && isBoldFont(font):
		return true
	}
	return false
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "semibold")
}

// IsHeadingLike applies the default rules.
func IsHeadingLike(text, font string, size float64) bool {
	return DefaultRules().IsHeading(text, font, size)
}

// IsNoise reports whether text is too short, too long, date-like, repetitive
// or letterless to be a heading.
func IsNoise(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || IsDateLine(t) || len([]rune(t)) < 3 {
		return true
	}
	words := strings.Fields(t)
	short := 0
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			short++
		}
	}
	if short > 2 || len(words) > 20 {
		return true
	}
	if hasRunOf(strings.ToLower(t), 3) {
		return true
	}
	return !strings.ContainsFunc(t, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || isIndic(r)
	})
}
