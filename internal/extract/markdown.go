package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// MarkdownText renders markdown content as plain text. Top-level blocks are
// separated by a blank line, nested blocks and table rows by a newline and
// table cells by " | ".
func MarkdownText(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	doc := markdown.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch {
			case node.Kind() == ast.KindDocument:
			case node.Kind() == east.KindTableCell:
				if node.NextSibling() != nil {
					b.WriteString(" | ")
				}
			case node.Type() == ast.TypeBlock && node.Parent() != nil && node.Parent().Kind() == ast.KindDocument:
				endWithNewlines(&b, 2)
			case node.Type() == ast.TypeBlock:
				endWithNewlines(&b, 1)
			}
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(content))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := v.Lines()
			for i := range lines.Len() {
				segment := lines.At(i)
				b.Write(segment.Value(content))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// endWithNewlines pads b so it ends with at least n newlines.
func endWithNewlines(b *strings.Builder, n int) {
	if b.Len() == 0 {
		return
	}
	s := b.String()
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for range n - have {
		b.WriteByte('\n')
	}
}
