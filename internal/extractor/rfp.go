package extractor

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
	"github.com/dgallion1/docoutline/internal/title"
)

// rfpStrategy collects heading-like lines after the title and ranks them by
// font size.
type rfpStrategy struct{ env }

func (s rfpStrategy) Title(a *layout.Analysis) string {
	return title.RFP(a, s.h)
}

// anchor finds where the body starts: just below the first line containing
// the title within the first three pages, or the top-fraction line of page
// one when the title is not found.
func (s rfpStrategy) anchor(a *layout.Analysis, t string) (page int, y float64) {
	first := a.First()
	if first == nil {
		return 0, 0
	}
	fallbackY := first.Height * s.h.RFPTopFraction
	key := signals.Key(t)
	if key == "" || t == title.UntitledRFP {
		return 0, fallbackY
	}
	for i, pv := range a.Pages {
		if i >= 3 {
			break
		}
		for _, ln := range pv.Lines {
			if strings.Contains(signals.Key(ln.Text), key) {
				return i, ln.Y + ln.Size
			}
		}
	}
	return 0, fallbackY
}

func (s rfpStrategy) Outline(a *layout.Analysis, t string) []doctree.Heading {
	startPage, startY := s.anchor(a, t)
	pred := s.predicate(s.h.RFPNonLatinMaxWords)
	lowerTitle := strings.ToLower(t)

	var out []doctree.Heading
	for _, pv := range a.Pages {
		if pv.Index < startPage {
			continue
		}
		for _, ln := range pv.Lines {
			if pv.Index == startPage && ln.Y <= startY {
				continue
			}
			if lowerTitle != "" && strings.Contains(strings.ToLower(ln.Text), lowerTitle) {
				continue
			}
			if signals.IsNoise(ln.Text) || !pred.IsHeading(ln.Text, ln.Font, ln.Size) {
				continue
			}
			out = append(out, doctree.Heading{Text: ln.Text, Level: doctree.H1, Page: pv.Index, Size: ln.Size, Y: ln.Y})
		}
	}

	o := s.assembleOpts()
	assemble.Sort(out)
	out = assemble.Dedupe(assemble.Merge(out, o), o)
	assemble.LevelsBySize(out)
	return out
}
