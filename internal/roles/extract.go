package roles

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Context is the document-wide state a handler may read.
type Context struct {
	Freq     signals.Frequency
	Dominant float64
	Heading  signals.HeadingPredicate
	// BulletSkipWords are first words after a bare number that mark a list
	// item rather than a heading.
	BulletSkipWords []string
}

// Handler extracts candidates from the lines of one page.
type Handler func(lines []doctree.Line, c *Context) []doctree.Heading

// Handlers maps each role to its extractor. Title and unknown pages have no
// handler and contribute nothing.
var Handlers = map[Role]Handler{
	HeadingPage:         headingPage,
	TOCPage:             keywordPage("table of contents"),
	RevisionHistoryPage: keywordPage("revision history"),
	AcknowledgementPage: keywordPage("acknowledgement"),
	ReferencesPage:      referencesPage,
}

// Extract runs the handler for role over lines.
func Extract(role Role, lines []doctree.Line, c *Context) []doctree.Heading {
	h, ok := Handlers[role]
	if !ok {
		return nil
	}
	return h(lines, c)
}

func candidate(ln doctree.Line, level doctree.Level) doctree.Heading {
	return doctree.Heading{Text: ln.Text, Level: level, Page: ln.Page, Size: ln.Size, Y: ln.Y}
}

func headingPage(lines []doctree.Line, c *Context) []doctree.Heading {
	var out []doctree.Heading
	seen := make(map[string]bool)
	for _, ln := range lines {
		text := ln.Text
		if seen[text] {
			continue
		}
		seen[text] = true

		if signals.IsMetadataLine(text) || c.Freq.IsRepeated(text) || signals.IsTOCLine(text) {
			continue
		}

		if num, ok := signals.ParseNumbering(text); ok {
			if c.isBullet(num) {
				continue
			}
			if signals.WordCount(num.Rest) >= 1 && ln.Size >= c.Dominant {
				out = append(out, candidate(ln, doctree.LevelOf(num.Depth())))
			}
			continue
		}

		if signals.IsChapter(text) {
			if ln.Size >= c.Dominant {
				out = append(out, candidate(ln, doctree.H1))
			}
			continue
		}

		if c.Heading.IsHeading(text, ln.Font, ln.Size) && ln.Size >= c.Dominant && signals.WordCount(text) > 2 {
			out = append(out, candidate(ln, doctree.H1))
		}
	}
	return out
}

// isBullet reports whether a bare number is followed by a skip-listed word.
func (c *Context) isBullet(n signals.Numbering) bool {
	if strings.Contains(n.Number, ".") {
		return false
	}
	first, _, _ := strings.Cut(strings.ToLower(n.Rest), " ")
	for _, w := range c.BulletSkipWords {
		if first == strings.ToLower(w) {
			return true
		}
	}
	return false
}

// keywordPage emits at most one H1: the first line containing keyword.
func keywordPage(keyword string) Handler {
	return func(lines []doctree.Line, _ *Context) []doctree.Heading {
		for _, ln := range lines {
			if strings.Contains(strings.ToLower(ln.Text), keyword) {
				return []doctree.Heading{candidate(ln, doctree.H1)}
			}
		}
		return nil
	}
}

var (
	referencesHeadRe = regexp.MustCompile(`(?i)^references\b`)
	subsectionRe     = regexp.MustCompile(`^\d+(\.\d+)+\s+`)
)

func referencesPage(lines []doctree.Line, _ *Context) []doctree.Heading {
	var out []doctree.Heading
	for _, ln := range lines {
		switch {
		case referencesHeadRe.MatchString(ln.Text), referencesLineRe.MatchString(signals.Key(ln.Text)):
			out = append(out, candidate(ln, doctree.H1))
		case subsectionRe.MatchString(ln.Text):
			out = append(out, candidate(ln, doctree.H2))
		}
	}
	return out
}
