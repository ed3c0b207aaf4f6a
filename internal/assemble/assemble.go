// Package assemble orders heading candidates, stitches split headings,
// removes duplicates and produces the final outline.
package assemble

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Options bounds merging and near-duplicate detection.
type Options struct {
	MaxGap       float64 // vertical distance, points
	MaxSizeRatio float64
	Overlap      float64 // word-set overlap ratio for near duplicates
}

// Sort orders candidates by page, then vertical position. Equal keys keep
// their input order.
func Sort(hs []doctree.Heading) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].Page != hs[j].Page {
			return hs[i].Page < hs[j].Page
		}
		return hs[i].Y < hs[j].Y
	})
}

// Merge stitches consecutive candidates a renderer split across lines: same
// page and level, close vertically, similar size, and the later one does not
// open with its own section number. Input must be sorted.
func Merge(hs []doctree.Heading, o Options) []doctree.Heading {
	if len(hs) == 0 {
		return nil
	}
	out := make([]doctree.Heading, 0, len(hs))
	cur := hs[0]
	prev := hs[0]
	for _, h := range hs[1:] {
		if joinable(prev, h, o) {
			cur.Text = strings.TrimSpace(cur.Text + " " + h.Text)
		} else {
			out = append(out, cur)
			cur = h
		}
		prev = h
	}
	return append(out, cur)
}

func joinable(prev, next doctree.Heading, o Options) bool {
	if prev.Page != next.Page || prev.Level != next.Level {
		return false
	}
	if math.Abs(next.Y-prev.Y) > o.MaxGap {
		return false
	}
	lo := math.Max(math.Min(prev.Size, next.Size), 0.1)
	if math.Max(prev.Size, next.Size)/lo > o.MaxSizeRatio {
		return false
	}
	return !signals.IsNumbered(next.Text)
}

type pageKey struct {
	text string
	page int
}

// Dedupe drops exact repeats of (normalized text, page) and then near
// duplicates on the same page. The first occurrence always survives.
func Dedupe(hs []doctree.Heading, o Options) []doctree.Heading {
	seen := make(map[pageKey]bool, len(hs))
	byPage := make(map[int][]string)
	out := make([]doctree.Heading, 0, len(hs))
	for _, h := range hs {
		key := signals.Key(h.Text)
		if key == "" {
			continue
		}
		k := pageKey{key, h.Page}
		if seen[k] {
			continue
		}
		dup := false
		for _, kept := range byPage[h.Page] {
			if Similar(kept, key, o.Overlap) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[k] = true
		byPage[h.Page] = append(byPage[h.Page], key)
		out = append(out, h)
	}
	return out
}

// Similar reports whether two normalized texts name the same heading: one
// contains the other, or their shared words make up at least overlap of the
// larger word set.
func Similar(a, b string, overlap float64) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	wa, wb := wordSet(a), wordSet(b)
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	larger := max(len(wa), len(wb))
	return float64(shared)/float64(larger) >= overlap
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// LevelsBySize assigns levels from font size rank: the largest distinct size
// is H1, the next H2, and everything from the fourth size on is H4.
func LevelsBySize(hs []doctree.Heading) {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, h := range hs {
		s := signals.RoundSize(h.Size)
		if !seen[s] {
			seen[s] = true
			sizes = append(sizes, s)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	rank := make(map[float64]doctree.Level, len(sizes))
	for i, s := range sizes {
		rank[s] = doctree.LevelOf(i + 1)
	}
	for i := range hs {
		hs[i].Level = rank[signals.RoundSize(hs[i].Size)]
	}
}

// Finalize converts candidates to output entries. This is the one place page
// indices turn 1-based. Invalid entries are dropped.
func Finalize(title string, hs []doctree.Heading) (doctree.Result, int) {
	r := doctree.Result{Title: title, Outline: make([]doctree.Entry, 0, len(hs))}
	for _, h := range hs {
		r.Outline = append(r.Outline, doctree.Entry{
			Level: h.Level,
			Text:  signals.Collapse(h.Text),
			Page:  h.Page + 1,
		})
	}
	dropped := r.Sanitize()
	return r, dropped
}
