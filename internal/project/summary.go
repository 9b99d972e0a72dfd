package project

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MaxSummaryRunes bounds the length of an extracted summary.
const MaxSummaryRunes = 280

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Summarize returns the plain text of the first top-level paragraph of a
// markdown document that has any text. Headings, lists, code blocks and
// images are skipped. The result is collapsed to single spaces and cut at
// MaxSummaryRunes.
func Summarize(source string) string {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}
		if s := paragraphText(n, src); s != "" {
			return truncate(s, MaxSummaryRunes)
		}
	}
	return ""
}

func paragraphText(p ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(p, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(v.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}
