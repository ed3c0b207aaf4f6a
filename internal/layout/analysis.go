package layout

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/signals"
)

// PageView is one page after line building.
type PageView struct {
	Index     int
	Width     float64
	Height    float64
	Fragments []doctree.Fragment
	Lines     []doctree.Line
	Text      string
	// Dominant is the most frequent line font size on the page.
	Dominant float64
	// Err is set when the provider could not read the page; the page then
	// has no lines.
	Err error
}

// Analysis is the context for one document. It is built once, read by every
// extractor and discarded with the document.
type Analysis struct {
	Pages     []*PageView
	Freq      signals.Frequency
	MetaTitle string
	// Heading decides heading likeness for strategies that defer to it.
	Heading signals.HeadingPredicate
}

// Analyze reads every page of src and builds lines, the frequency table and
// dominant sizes. It checks ctx between pages and stops with ctx.Err() once
// the context is done. Unreadable pages are kept as empty views with Err set.
func Analyze(ctx context.Context, src doctree.Source, heading signals.HeadingPredicate) (*Analysis, error) {
	if heading == nil {
		heading = signals.DefaultRules()
	}
	a := &Analysis{
		Freq:      signals.Frequency{},
		MetaTitle: signals.Collapse(src.MetaTitle()),
		Heading:   heading,
	}

	n := src.NumPages()
	a.Pages = make([]*PageView, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analyze page %d: %w", i, err)
		}
		a.Pages = append(a.Pages, buildView(src, i))
	}

	for _, pv := range a.Pages {
		for _, ln := range pv.Lines {
			a.Freq.Add(ln.Text)
		}
	}
	return a, nil
}

func buildView(src doctree.Source, i int) *PageView {
	page, err := src.Page(i)
	if err != nil {
		return &PageView{Index: i, Err: err}
	}
	if page == nil {
		return &PageView{Index: i}
	}
	page.Index = i

	lines := BuildLines(page)
	sizes := make([]float64, len(lines))
	for j, ln := range lines {
		sizes[j] = ln.Size
	}

	text := page.Text
	if strings.TrimSpace(text) == "" {
		parts := make([]string, len(lines))
		for j, ln := range lines {
			parts[j] = ln.Text
		}
		text = strings.Join(parts, "\n")
	}

	return &PageView{
		Index:     i,
		Width:     page.Width,
		Height:    page.Height,
		Fragments: page.Fragments,
		Lines:     lines,
		Text:      text,
		Dominant:  signals.DominantSize(sizes),
	}
}

// Sample returns the lower-cased plain text of the first n pages.
func (a *Analysis) Sample(n int) string {
	var b strings.Builder
	for i, pv := range a.Pages {
		if i >= n {
			break
		}
		b.WriteString(strings.ToLower(pv.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// First returns the first page or nil for an empty document.
func (a *Analysis) First() *PageView {
	if len(a.Pages) == 0 {
		return nil
	}
	return a.Pages[0]
}

// PlainLines splits a page's plain text into cleaned non-empty lines.
func (pv *PageView) PlainLines() []string {
	var out []string
	for _, l := range strings.Split(pv.Text, "\n") {
		if c := signals.Collapse(l); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// UnreadablePages lists the indices of pages the provider failed to read.
func (a *Analysis) UnreadablePages() []int {
	var out []int
	for _, pv := range a.Pages {
		if pv.Err != nil {
			out = append(out, pv.Index)
		}
	}
	return out
}
