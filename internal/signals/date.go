package signals

import (
	"regexp"
	"strings"
)

const months = `January|February|March|April|May|June|July|August|September|October|November|December`

var dateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:` + months + `)\s+\d{1,2},?\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:` + months + `)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:` + months + `)\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`(?i)\bFY\s*(19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\bQ[1-4]\s*(19|20)\d{2}\b`),
	regexp.MustCompile(`\b(19|20)\d{2}\s*[-/]\s*(19|20)\d{2}\b`),
}

var (
	yearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	monthRe = regexp.MustCompile(`(?i)` + months)
)

// IsDateLine reports whether text contains a recognisable date, fiscal period
// or a year next to a month name or the word "timeline".
func IsDateLine(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	for _, rx := range dateRegexes {
		if rx.MatchString(t) {
			return true
		}
	}
	if yearRe.MatchString(t) {
		return monthRe.MatchString(t) || strings.Contains(strings.ToLower(t), "timeline")
	}
	return false
}
