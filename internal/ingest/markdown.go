package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// parseMarkdown keeps prose only, one block per line. Headings and list
// items are terminated so they segment as their own sentence; paragraphs
// keep the author's punctuation.
func parseMarkdown(raw []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(raw))
	var (
		out []string
		cur strings.Builder
	)
	flush := func(term bool) {
		s := strings.Join(strings.Fields(cur.String()), " ")
		cur.Reset()
		if s == "" {
			return
		}
		if term {
			s = terminate(s)
		}
		out = append(out, s)
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				cur.Write(node.Segment.Value(raw))
				if node.SoftLineBreak() || node.HardLineBreak() {
					cur.WriteString(" ")
				}
			}
			return ast.WalkContinue, nil
		}
		if !entering && n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			flush(n.Kind() == ast.KindHeading || inListItem(n))
		}
		return ast.WalkContinue, nil
	})
	flush(false)
	return strings.Join(out, "\n")
}

func inListItem(n ast.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			return true
		}
	}
	return false
}
