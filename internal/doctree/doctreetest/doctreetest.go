// Package doctreetest builds in-memory documents for tests.
package doctreetest

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Letter page dimensions in points.
const (
	Width  = 612.0
	Height = 792.0
)

// Text is one fragment placed on a page. X is the left edge, Y the top edge.
type Text struct {
	X, Y float64
	Size float64
	Font string
	S    string
}

// L places text at the left margin.
func L(y, size float64, s string) Text {
	return Text{X: 72, Y: y, Size: size, Font: "Helvetica", S: s}
}

// B places bold text at the left margin.
func B(y, size float64, s string) Text {
	return Text{X: 72, Y: y, Size: size, Font: "Helvetica-Bold", S: s}
}

// C centres text horizontally on the page.
func C(y, size float64, s string) Text {
	w := textWidth(size, s)
	return Text{X: (Width - w) / 2, Y: y, Size: size, Font: "Helvetica", S: s}
}

// At places text at an explicit position.
func At(x, y, size float64, s string) Text {
	return Text{X: x, Y: y, Size: size, Font: "Helvetica", S: s}
}

func textWidth(size float64, s string) float64 {
	return 0.5 * size * float64(utf8.RuneCountInString(s))
}

// Doc is a doctree.Source backed by memory.
type Doc struct {
	Title string
	pages [][]Text
	plain map[int]string
	errs  map[int]error
}

// New returns an empty document.
func New() *Doc {
	return &Doc{plain: map[int]string{}, errs: map[int]error{}}
}

// AddPage appends a page holding texts.
func (d *Doc) AddPage(texts ...Text) *Doc {
	d.pages = append(d.pages, texts)
	return d
}

// Plain overrides the plain text of page i.
func (d *Doc) Plain(i int, s string) *Doc {
	d.plain[i] = s
	return d
}

// Fail makes page i unreadable.
func (d *Doc) Fail(i int) *Doc {
	d.errs[i] = fmt.Errorf("page %d: corrupt content stream", i)
	return d
}

// Blank appends n empty pages.
func (d *Doc) Blank(n int) *Doc {
	for range n {
		d.pages = append(d.pages, nil)
	}
	return d
}

func (d *Doc) NumPages() int     { return len(d.pages) }
func (d *Doc) MetaTitle() string { return d.Title }

func (d *Doc) Page(i int) (*doctree.Page, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", i)
	}
	if err := d.errs[i]; err != nil {
		return nil, err
	}
	p := &doctree.Page{Index: i, Width: Width, Height: Height, Text: d.plain[i]}
	for _, t := range d.pages[i] {
		p.Fragments = append(p.Fragments, doctree.Fragment{
			Text: t.S,
			Font: t.Font,
			Size: t.Size,
			Box:  doctree.Rect{X0: t.X, Y0: t.Y, X1: t.X + textWidth(t.Size, t.S), Y1: t.Y + t.Size},
		})
	}
	return p, nil
}
