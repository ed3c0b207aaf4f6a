package extractor

import (
	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/roles"
	"github.com/dgallion1/docoutline/internal/title"
)

// structuredStrategy labels each page and runs the matching role handler.
// Levels come from section numbering; sizes never re-rank them.
type structuredStrategy struct{ env }

func (s structuredStrategy) Title(a *layout.Analysis) string {
	return title.Generic(a, s.h)
}

func (s structuredStrategy) Outline(a *layout.Analysis, _ string) []doctree.Heading {
	var out []doctree.Heading
	for _, pv := range a.Pages {
		role := roles.Classify(pv.Lines)
		s.log.Debug("page role", "page", pv.Index, "role", string(role), "lines", len(pv.Lines))
		c := &roles.Context{
			Freq:            a.Freq,
			Dominant:        pv.Dominant,
			Heading:         a.Heading,
			BulletSkipWords: s.h.BulletSkipWords,
		}
		out = append(out, roles.Extract(role, pv.Lines, c)...)
	}

	o := s.assembleOpts()
	assemble.Sort(out)
	return assemble.Dedupe(assemble.Merge(out, o), o)
}
