package signals

import (
	"regexp"
	"strings"
)

var (
	numberingRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)([\s.]+)(.*)$`)
	chapterRe   = regexp.MustCompile(`(?i)^chapter\s+\d+\s*:`)
)

// Numbering is a parsed section-number prefix such as "2.3.1".
type Numbering struct {
	Number string
	Rest   string // text after the number, trimmed
}

// Depth is the number of dotted components, so "2" is 1 and "2.3.1" is 3.
func (n Numbering) Depth() int {
	return strings.Count(n.Number, ".") + 1
}

// ParseNumbering splits a leading section number from text.
func ParseNumbering(text string) (Numbering, bool) {
	m := numberingRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Numbering{}, false
	}
	return Numbering{Number: m[1], Rest: strings.TrimSpace(m[3])}, true
}

// IsChapter reports whether text opens with "Chapter N:".
func IsChapter(text string) bool {
	return chapterRe.MatchString(strings.TrimSpace(text))
}
