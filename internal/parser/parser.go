package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// ErrUnsupported is returned for file extensions no parser handles.
var ErrUnsupported = errors.New("unsupported file extension")

// OutlineParser reads a format whose heading structure is explicit and
// returns its outline directly. Every entry is on page 1.
type OutlineParser interface {
	ParseOutline(r io.Reader, filename string) (*doctree.Result, error)
}

// NativeExtensions lists formats parsed without layout heuristics.
var NativeExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the outline parser for a native format.
func ForFile(filename string) (OutlineParser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsPDF reports whether filename has a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// IsSupportedExtension reports whether filename can be processed. Native
// formats count only when native is set.
func IsSupportedExtension(filename string, native bool) bool {
	if IsPDF(filename) {
		return true
	}
	return native && NativeExtensions[strings.ToLower(filepath.Ext(filename))]
}

// stem strips the directory and extension from filename.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outline collects native headings. The first level-1 heading becomes the
// title when the format has no title of its own.
type outline struct {
	title   string
	entries []doctree.Entry
}

func (o *outline) add(depth int, text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}
	if depth == 1 && o.title == "" {
		o.title = text
	}
	o.entries = append(o.entries, doctree.Entry{Level: doctree.LevelOf(depth), Text: text, Page: 1})
}

func (o *outline) result(fallbackTitle string) *doctree.Result {
	r := &doctree.Result{Title: o.title, Outline: dedupe(o.entries)}
	if r.Title == "" {
		r.Title = fallbackTitle
	}
	return r
}

// dedupe keeps the first entry for each case-insensitive text.
func dedupe(entries []doctree.Entry) []doctree.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]doctree.Entry, 0, len(entries))
	for _, e := range entries {
		k := strings.ToLower(e.Text)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
