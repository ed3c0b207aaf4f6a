package extractor

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
	"github.com/dgallion1/docoutline/internal/title"
)

var listItemRe = regexp.MustCompile(`^(?:[1-9]|1[0-9])\.`)

// formStrategy emits nothing for ordinary forms. Only long, multi-word,
// label-free lines that read as headings survive.
type formStrategy struct{ env }

func (s formStrategy) Title(a *layout.Analysis) string {
	return title.Form(a)
}

func (s formStrategy) Outline(a *layout.Analysis, t string) []doctree.Heading {
	pred := s.predicate(s.h.NonLatinMaxWords)
	lowerTitle := strings.ToLower(t)

	var out []doctree.Heading
	for _, pv := range a.Pages {
		for _, ln := range pv.Lines {
			lower := strings.ToLower(ln.Text)
			if lower == lowerTitle || len([]rune(ln.Text)) <= 20 || listItemRe.MatchString(ln.Text) {
				continue
			}
			if title.HasFieldKeyword(ln.Text) || signals.WordCount(ln.Text) < 3 {
				continue
			}
			if ln.Size < pv.Dominant || !pred.IsHeading(ln.Text, ln.Font, ln.Size) {
				continue
			}
			out = append(out, doctree.Heading{Text: ln.Text, Level: doctree.H1, Page: pv.Index, Size: ln.Size, Y: ln.Y})
		}
	}
	assemble.Sort(out)
	return assemble.Dedupe(out, s.assembleOpts())
}
