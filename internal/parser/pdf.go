package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// Default page size when a page has no usable MediaBox (US Letter).
const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

// PDFParser opens PDFs as a doctree.Source using ledongthuc/pdf.
type PDFParser struct {
	// RowTolerance is the baseline distance, in points, within which glyphs
	// share a row.
	RowTolerance float64
	// WordSpace is the gap, as a fraction of font size, that becomes a space.
	WordSpace float64
	// ColumnGap is the gap, as a multiple of font size, that splits a row
	// into separate fragments.
	ColumnGap float64
}

// NewPDFParser returns a parser with the usual glyph grouping tolerances.
func NewPDFParser() *PDFParser {
	return &PDFParser{RowTolerance: 2.0, WordSpace: 0.2, ColumnGap: 3.0}
}

// PDFDocument is an open PDF. Close releases the file.
type PDFDocument struct {
	p       *PDFParser
	f       io.Closer
	r       *pdflib.Reader
	cleanup func()
}

var _ doctree.Source = (*PDFDocument)(nil)

// Open opens the PDF at path.
func (p *PDFParser) Open(path string) (doc *PDFDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open pdf: %v", r)
		}
	}()
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &PDFDocument{p: p, f: f, r: reader}, nil
}

// OpenReader copies r to a temp file and opens it. The temp file is removed
// on Close.
func (p *PDFParser) OpenReader(r io.Reader) (*PDFDocument, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := p.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	doc.cleanup = func() { os.Remove(tmpPath) }
	return doc, nil
}

// Close releases the file and any temp copy.
func (d *PDFDocument) Close() error {
	err := d.f.Close()
	if d.cleanup != nil {
		d.cleanup()
	}
	return err
}

func (d *PDFDocument) NumPages() int { return d.r.NumPage() }

// MetaTitle returns the Info dictionary's Title, or "".
func (d *PDFDocument) MetaTitle() (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return strings.TrimSpace(d.r.Trailer().Key("Info").Key("Title").Text())
}

// Page reads page i (0-based). A panic inside the PDF library is returned
// as an error so one bad page does not take down the document.
func (d *PDFDocument) Page(i int) (page *doctree.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, fmt.Errorf("read page %d: %v", i+1, r)
		}
	}()

	pg := d.r.Page(i + 1)
	if pg.V.IsNull() {
		return nil, fmt.Errorf("read page %d: missing page object", i+1)
	}

	width, height := mediaBox(pg.V)
	frags := d.p.group(pg.Content().Text, height)

	text, err := pg.GetPlainText(nil)
	if err != nil {
		text = ""
	}

	return &doctree.Page{
		Index:     i,
		Width:     width,
		Height:    height,
		Fragments: frags,
		Text:      text,
	}, nil
}

// mediaBox returns the page size, following Parent links for an inherited
// box and falling back to US Letter.
func mediaBox(v pdflib.Value) (width, height float64) {
	for depth := 0; depth < 10 && !v.IsNull(); depth++ {
		if w, h, ok := parseBox(v.Key("MediaBox")); ok {
			return w, h
		}
		v = v.Key("Parent")
	}
	return defaultWidth, defaultHeight
}

func parseBox(box pdflib.Value) (w, h float64, ok bool) {
	if box.Kind() != pdflib.Array || box.Len() != 4 {
		return 0, 0, false
	}
	var c [4]float64
	for i := range c {
		val := box.Index(i)
		switch val.Kind() {
		case pdflib.Integer:
			c[i] = float64(val.Int64())
		case pdflib.Real:
			c[i] = val.Float64()
		default:
			return 0, 0, false
		}
	}
	w, h = math.Abs(c[2]-c[0]), math.Abs(c[3]-c[1])
	if w == 0 || h == 0 {
		return 0, 0, false
	}
	return w, h, true
}

// group turns positioned glyphs into fragments. Glyphs are bucketed into
// rows by baseline, ordered by x, and split into fragments on a font or size
// change or a column-sized gap. Every fragment in a row shares the row's top
// edge, measured down from the top of the page.
func (p *PDFParser) group(glyphs []pdflib.Text, pageHeight float64) []doctree.Fragment {
	if len(glyphs) == 0 {
		return nil
	}
	gs := make([]pdflib.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			gs = append(gs, g)
		}
	}
	// Top of page first, then left to right.
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Y != gs[j].Y {
			return gs[i].Y > gs[j].Y
		}
		return gs[i].X < gs[j].X
	})

	var out []doctree.Fragment
	for start := 0; start < len(gs); {
		end := start + 1
		for end < len(gs) && math.Abs(gs[end].Y-gs[start].Y) <= p.RowTolerance {
			end++
		}
		out = append(out, p.row(gs[start:end], pageHeight)...)
		start = end
	}
	return out
}

func (p *PDFParser) row(gs []pdflib.Text, pageHeight float64) []doctree.Fragment {
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].X < gs[j].X })

	baseline, maxSize := gs[0].Y, 0.0
	for _, g := range gs {
		maxSize = math.Max(maxSize, g.FontSize)
	}
	top := pageHeight - baseline - maxSize
	bottom := pageHeight - baseline

	var out []doctree.Fragment
	var cur *doctree.Fragment
	var b strings.Builder
	var prevEnd float64

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = b.String()
		if strings.TrimSpace(cur.Text) != "" {
			out = append(out, *cur)
		}
		cur = nil
		b.Reset()
	}

	for _, g := range gs {
		gap := g.X - prevEnd
		if cur != nil && (g.Font != cur.Font || g.FontSize != cur.Size || gap > p.ColumnGap*g.FontSize) {
			flush()
		}
		if cur == nil {
			cur = &doctree.Fragment{
				Font: g.Font,
				Size: g.FontSize,
				Box:  doctree.Rect{X0: g.X, Y0: top, Y1: bottom},
			}
		} else if gap > p.WordSpace*g.FontSize && !strings.HasSuffix(b.String(), " ") && g.S != " " {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		prevEnd = g.X + g.W
		cur.Box.X1 = prevEnd
	}
	flush()
	return out
}
