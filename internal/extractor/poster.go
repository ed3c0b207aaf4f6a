package extractor

import (
	"sort"

	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
	"github.com/dgallion1/docoutline/internal/title"
)

// posterStrategy works on individual spans: the three largest sizes other
// than the title's become H1..H3, and an H1 placed low and indented is
// demoted to H2.
type posterStrategy struct{ env }

func (s posterStrategy) Title(a *layout.Analysis) string {
	return title.Poster(a)
}

type span struct {
	text string
	size float64
	page int
	box  doctree.Rect
}

func withinWordLimit(text string) bool {
	limit := 8
	if signals.DetectScript(text) != signals.Latin {
		limit = 12
	}
	return signals.WordCount(text) <= limit
}

func (s posterStrategy) Outline(a *layout.Analysis, t string) []doctree.Heading {
	var spans []span
	sizes := make(map[float64]bool)
	for _, pv := range a.Pages {
		for _, f := range pv.Fragments {
			text := signals.Collapse(f.Text)
			if len([]rune(text)) < 4 || !withinWordLimit(text) {
				continue
			}
			sz := signals.RoundSize(f.Size)
			if text != t {
				sizes[sz] = true
			}
			spans = append(spans, span{text: text, size: sz, page: pv.Index, box: f.Box})
		}
	}

	ranked := make([]float64, 0, len(sizes))
	for sz := range sizes {
		ranked = append(ranked, sz)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	level := make(map[float64]doctree.Level, len(ranked))
	for i, sz := range ranked {
		level[sz] = doctree.LevelOf(i + 1)
	}

	var out []doctree.Heading
	for _, sp := range spans {
		lv, ok := level[sp.size]
		if !ok || sp.text == t {
			continue
		}
		if lv == doctree.H1 && sp.box.Y0 > s.h.PosterDemoteY && sp.box.X0 > s.h.PosterDemoteX {
			lv = doctree.H2
		}
		out = append(out, doctree.Heading{Text: sp.text, Level: lv, Page: sp.page, Size: sp.size, Y: sp.box.Y0})
	}

	o := s.assembleOpts()
	assemble.Sort(out)
	return assemble.Dedupe(assemble.Merge(out, o), o)
}
