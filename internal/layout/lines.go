// Package layout turns provider fragments into visual lines and gathers the
// per-document context every extractor reads.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/signals"
)

// rowKey rounds a top edge to one decimal so fragments on the same visual
// line land in the same bucket.
func rowKey(y float64) float64 { return math.Round(y*10) / 10 }

// BuildLines groups a page's fragments into lines ordered top to bottom.
// Fragments in a line are ordered by their left edge and joined with single
// spaces. The line takes its font and size (rounded to one decimal) from its
// first fragment. Lines whose text is empty after trimming are dropped.
func BuildLines(page *doctree.Page) []doctree.Line {
	if page == nil || len(page.Fragments) == 0 {
		return nil
	}

	rows := make(map[float64][]doctree.Fragment)
	var keys []float64
	for _, f := range page.Fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		k := rowKey(f.Box.Y0)
		if _, ok := rows[k]; !ok {
			keys = append(keys, k)
		}
		rows[k] = append(rows[k], f)
	}
	sort.Float64s(keys)

	lines := make([]doctree.Line, 0, len(keys))
	for _, k := range keys {
		frags := rows[k]
		sort.SliceStable(frags, func(i, j int) bool { return frags[i].Box.X0 < frags[j].Box.X0 })

		parts := make([]string, 0, len(frags))
		x0, x1 := frags[0].Box.X0, frags[0].Box.X1
		for _, f := range frags {
			if t := signals.Collapse(f.Text); t != "" {
				parts = append(parts, t)
			}
			x0 = math.Min(x0, f.Box.X0)
			x1 = math.Max(x1, f.Box.X1)
		}
		text := strings.Join(parts, " ")
		if text == "" {
			continue
		}
		lines = append(lines, doctree.Line{
			Text: text,
			Page: page.Index,
			Y:    k,
			X0:   x0,
			X1:   x1,
			Font: frags[0].Font,
			Size: signals.RoundSize(frags[0].Size),
		})
	}
	return lines
}
