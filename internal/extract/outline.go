package extract

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int
	Text  string
}

// Outline is the structure of a Markdown document as seen by the summarizer
// and the fallback generator.
type Outline struct {
	// Title is the first level 1 heading, or the first heading of any level.
	Title      string
	Headings   []Heading
	Paragraphs []string
	// Plain is the prose of the document without markup or code.
	Plain string
	Words int
}

// ParseOutline walks the Markdown AST collecting headings and paragraph text.
// Code blocks and raw HTML are ignored.
func ParseOutline(markdown string) Outline {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out Outline
	var plain strings.Builder
	appendPlain := func(s string) {
		if s == "" {
			return
		}
		if plain.Len() > 0 {
			plain.WriteString("\n")
		}
		plain.WriteString(s)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			t := inlineText(node, src)
			if t != "" {
				out.Headings = append(out.Headings, Heading{Level: node.Level, Text: t})
				appendPlain(t)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			t := inlineText(node, src)
			if t != "" {
				out.Paragraphs = append(out.Paragraphs, t)
				appendPlain(t)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, h := range out.Headings {
		if h.Level == 1 {
			out.Title = h.Text
			break
		}
	}
	if out.Title == "" && len(out.Headings) > 0 {
		out.Title = out.Headings[0].Text
	}
	out.Plain = plain.String()
	out.Words = CountWords(out.Plain)
	return out
}

// inlineText collects the text segments under n. Soft line breaks become
// spaces; images contribute their alt text.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.RawHTML:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
