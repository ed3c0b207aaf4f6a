package extractor

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/title"
)

// hopeKeywords are "hope" in English, Hindi and Telugu. Invitations carry
// their one outline entry in the "we hope to see you" line.
var hopeKeywords = []string{"hope", "आशा", "భావిస్తున్నాము"}

type invitationStrategy struct{ env }

func (s invitationStrategy) Title(a *layout.Analysis) string {
	return title.Invitation(a, s.h)
}

func (s invitationStrategy) Outline(a *layout.Analysis, _ string) []doctree.Heading {
	var out []doctree.Heading
	for _, pv := range a.Pages {
		for i, line := range pv.PlainLines() {
			lower := strings.ToLower(line)
			for _, k := range hopeKeywords {
				if strings.Contains(lower, k) {
					out = append(out, doctree.Heading{Text: line, Level: doctree.H1, Page: pv.Index, Y: float64(i)})
					break
				}
			}
		}
	}
	assemble.Sort(out)
	return assemble.Dedupe(out, s.assembleOpts())
}
