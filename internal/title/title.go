// Package title picks a document title from the first page.
package title

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Sentinel titles for documents with no usable title line.
const (
	Untitled           = "Untitled Document"
	UntitledForm       = "Untitled Form"
	UntitledPoster     = "Untitled Poster"
	UntitledInvitation = "Untitled Invitation"
	UntitledRFP        = "Untitled RFP"
)

var skipKeywords = []string{"version", "copyright", "page", "www", "revision", "table of contents"}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// Generic collects the run of top-of-page lines sharing a large font size.
// Boilerplate lines are skipped until the run starts and end it afterwards.
// A size change beyond h.TitleSizeDelta also ends the run.
func Generic(a *layout.Analysis, h config.Heuristics) string {
	pv := a.First()
	if pv == nil {
		return Fallback(a)
	}
	limit := pv.Height * h.TitleTopFraction

	seen := make(map[string]bool)
	var parts []string
	var lastSize float64
	for _, ln := range pv.Lines {
		if pv.Height > 0 && ln.Y > limit {
			continue
		}
		if seen[ln.Text] {
			continue
		}
		seen[ln.Text] = true

		if containsAny(strings.ToLower(ln.Text), skipKeywords) {
			if len(parts) > 0 {
				break
			}
			continue
		}
		if len(parts) > 0 && math.Abs(ln.Size-lastSize) > h.TitleSizeDelta {
			break
		}
		if signals.HasLetter(ln.Text) && runeLen(ln.Text) > 5 {
			parts = append(parts, ln.Text)
			lastSize = ln.Size
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return Fallback(a)
}

// Fallback tries the metadata title, then the first meaningful line of the
// first page, then the sentinel.
func Fallback(a *layout.Analysis) string {
	if runeLen(a.MetaTitle) > 3 {
		return a.MetaTitle
	}
	if pv := a.First(); pv != nil {
		for _, ln := range pv.Lines {
			if meaningful(ln.Text) {
				return ln.Text
			}
		}
	}
	return Untitled
}

func meaningful(s string) bool {
	if runeLen(s) <= 5 || !signals.HasLetter(s) {
		return false
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && !unicode.IsSpace(r) && !unicode.IsPunct(r)
	})
}
