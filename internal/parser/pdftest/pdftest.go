// Package pdftest writes small, valid PDFs for tests.
package pdftest

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// Text is one line of text. Y is the baseline measured up from the bottom of
// a 612x792 page, as PDF coordinates are.
type Text struct {
	X, Y float64
	Size float64
	Bold bool
	S    string
}

// Doc describes a PDF to build.
type Doc struct {
	Title string // Info dictionary title; empty omits it
	Pages [][]Text
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

// widths gives every printable ASCII glyph a 500/1000 em advance.
func widths() string {
	w := make([]string, 95)
	for i := range w {
		w[i] = "500"
	}
	return "[" + strings.Join(w, " ") + "]"
}

// Build renders d as PDF bytes with a correct cross-reference table.
func Build(d Doc) []byte {
	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}

	catalog := add("") // filled once the page tree id is known
	pagesID := add("")
	font := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%%s /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths %s >>", widths())
	regular := add(fmt.Sprintf(font, "Helvetica"))
	bold := add(fmt.Sprintf(font, "Helvetica-Bold"))
	info := 0
	if d.Title != "" {
		info = add(fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", escape(d.Title)))
	}

	var kids []string
	for _, page := range d.Pages {
		var stream strings.Builder
		for _, t := range page {
			f := "F1"
			if t.Bold {
				f = "F2"
			}
			fmt.Fprintf(&stream, "BT\n/%s %g Tf\n1 0 0 1 %g %g Tm\n(%s) Tj\nET\n", f, t.Size, t.X, t.Y, escape(t.S))
		}
		content := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()))
		pageID := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> >> >>",
			pagesID, content, regular, bold))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objs[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID)
	objs[pagesID-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objs)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(objs)+1, catalog)
	if info != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", info)
	}
	fmt.Fprintf(&b, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return []byte(b.String())
}

// Write builds d and writes it to path.
func Write(t testing.TB, path string, d Doc) {
	t.Helper()
	if err := os.WriteFile(path, Build(d), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}

// Pages returns n pages that each carry one line of body text.
func Pages(n int) [][]Text {
	out := make([][]Text, n)
	for i := range out {
		out[i] = []Text{{X: 72, Y: 700, Size: 11, S: fmt.Sprintf("Body text on page %d", i+1)}}
	}
	return out
}
