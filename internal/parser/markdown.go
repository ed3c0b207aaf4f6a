package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser reads ATX and setext headings using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) ParseOutline(r io.Reader, filename string) (*doctree.Result, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var o outline
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.add(h.Level, inlineText(h, src))
		}
	}
	return o.result(stem(filename)), nil
}

// inlineText gets the text content of a goldmark node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
