// Package roles labels the pages of a structured document and extracts
// heading candidates with a handler per label.
package roles

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Role is a page-level classification.
type Role string

const (
	TitlePage           Role = "title_page"
	TOCPage             Role = "toc_page"
	RevisionHistoryPage Role = "revision_history_page"
	AcknowledgementPage Role = "acknowledgements_page"
	ReferencesPage      Role = "references_page"
	HeadingPage         Role = "heading_page"
	Unknown             Role = "unknown"
)

var (
	revisionFieldRe  = regexp.MustCompile(`remarks|version|date`)
	referencesLineRe = regexp.MustCompile(`^\d+(\.\d+)*[.\s]+references`)
	numberedHeadRe   = regexp.MustCompile(`^\d+(\.\d+)*[\s.]+`)
)

// Classify labels a page from its lines. The first matching rule wins.
func Classify(lines []doctree.Line) Role {
	texts := make([]string, 0, len(lines))
	for _, ln := range lines {
		if t := signals.Key(ln.Text); t != "" {
			texts = append(texts, t)
		}
	}

	if isTitlePage(texts) {
		return TitlePage
	}

	leaders := 0
	for _, t := range texts {
		if strings.Contains(t, "table of contents") {
			return TOCPage
		}
		if signals.IsDottedLeader(t) {
			leaders++
		}
	}
	if leaders >= 3 {
		return TOCPage
	}

	if anyMatch(texts, func(t string) bool { return strings.Contains(t, "revision history") }) &&
		anyMatch(texts, revisionFieldRe.MatchString) {
		return RevisionHistoryPage
	}
	if anyMatch(texts, func(t string) bool { return strings.Contains(t, "acknowledgement") }) {
		return AcknowledgementPage
	}
	if anyMatch(texts, func(t string) bool { return t == "references" || referencesLineRe.MatchString(t) }) {
		return ReferencesPage
	}
	if anyMatch(texts, func(t string) bool { return numberedHeadRe.MatchString(t) || signals.IsChapter(t) }) {
		return HeadingPage
	}
	return Unknown
}

func isTitlePage(texts []string) bool {
	if len(texts) == 0 || len(texts) > 5 {
		return false
	}
	long := false
	for _, t := range texts {
		if strings.Contains(t, "copyright") || strings.Contains(t, "version") || strings.Contains(t, "page") {
			return false
		}
		if signals.WordCount(t) >= 4 {
			long = true
		}
	}
	return long
}

func anyMatch(texts []string, pred func(string) bool) bool {
	for _, t := range texts {
		if pred(t) {
			return true
		}
	}
	return false
}
