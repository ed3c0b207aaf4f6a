package title

import (
	"math"
	"strings"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
)

// FieldKeywords are form field labels in English, Hindi and Telugu.
var FieldKeywords = []string{
	"s.no", "name", "age", "designation", "relationship", "date", "signature", "address",
	"नाम", "आयु", "पता", "हस्ताक्षर", "तारीख",
	"పేరు", "వయస్సు", "చిరునామా", "హస్తాక్షరం", "తేదీ",
}

// HasFieldKeyword reports whether s mentions a form field label.
func HasFieldKeyword(s string) bool {
	return containsAny(strings.ToLower(s), FieldKeywords)
}

// Form returns the first plain line of page one that is long, digit-free
// and not a field label.
func Form(a *layout.Analysis) string {
	pv := a.First()
	if pv == nil {
		return UntitledForm
	}
	for _, line := range pv.PlainLines() {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "microsoft word") || strings.Contains(lower, ".doc") {
			continue
		}
		if runeLen(line) > 10 && !signals.HasDigit(line) && !HasFieldKeyword(line) {
			return line
		}
	}
	return UntitledForm
}

// Poster returns the largest span on page one with at least five characters.
func Poster(a *layout.Analysis) string {
	pv := a.First()
	if pv == nil {
		return UntitledPoster
	}
	best, size := "", 0.0
	for _, f := range pv.Fragments {
		text := signals.Collapse(f.Text)
		if runeLen(text) < 5 {
			continue
		}
		if f.Size > size {
			best, size = text, f.Size
		}
	}
	if best == "" {
		return UntitledPoster
	}
	return best
}

// Centered reports whether a line's midpoint sits within tol×width of the
// page's horizontal centre.
func Centered(ln doctree.Line, width, tol float64) bool {
	mid := (ln.X0 + ln.X1) / 2
	return math.Abs(mid-width/2) < tol*width
}

// Invitation joins up to two centred, adequately sized lines from the top of
// page one with " | ".
func Invitation(a *layout.Analysis, h config.Heuristics) string {
	pv := a.First()
	if pv == nil {
		return UntitledInvitation
	}
	var parts []string
	for _, ln := range pv.Lines {
		if ln.Y > pv.Height*h.InvitationTopFraction {
			continue
		}
		if Centered(ln, pv.Width, h.CenterTolerance) && ln.Size >= 10 {
			parts = append(parts, ln.Text)
		}
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return UntitledInvitation
	}
	return strings.Join(parts, " | ")
}

// RFP joins the non-noise lines in the top of page one whose size is within
// one point of the largest there.
func RFP(a *layout.Analysis, h config.Heuristics) string {
	pv := a.First()
	if pv == nil {
		return UntitledRFP
	}
	var cands []doctree.Line
	maxSize := 0.0
	for _, ln := range pv.Lines {
		if ln.Y > pv.Height*h.RFPTopFraction || signals.IsNoise(ln.Text) {
			continue
		}
		cands = append(cands, ln)
		maxSize = math.Max(maxSize, ln.Size)
	}
	var parts []string
	for _, ln := range cands {
		if ln.Size >= maxSize-1 {
			parts = append(parts, ln.Text)
		}
	}
	if len(parts) == 0 {
		return UntitledRFP
	}
	return strings.Join(parts, " ")
}
