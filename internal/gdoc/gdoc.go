// Package gdoc models a Google Docs document as a closed tree of blocks and
// inline elements plus the read-only side tables the blocks refer to.
package gdoc

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned by a Source when the document does not exist or is
// not shared with the caller.
var ErrNotFound = errors.New("document not found")

// Source fetches documents by ID.
type Source interface {
	// FetchTree returns the structured source tree.
	FetchTree(ctx context.Context, id string) (*Document, error)
	// FetchRenderedText returns the document rendered as Markdown, used as AI
	// input for metadata extraction.
	FetchRenderedText(ctx context.Context, id string) (string, error)
}

// Document is a parsed source document.
type Document struct {
	ID    string
	Title string
	Body  []Block

	// Side tables. Never mutated after construction.
	Lists         map[string]List
	InlineObjects map[string]Image
	NamedStyles   map[string]NamedStyle
}

// Block is a top-level structural element: *Paragraph, *Table or *SectionBreak.
type Block interface {
	isBlock()
}

// Inline is a paragraph element: *TextRun or *InlineObjectRef.
type Inline interface {
	isInline()
}

type Paragraph struct {
	Elements []Inline
	Style    ParagraphStyle
	Bullet   *Bullet
}

type Table struct {
	Rows [][]TableCell
}

type TableCell struct {
	Content []Block
}

// SectionBreak carries no content.
type SectionBreak struct{}

func (*Paragraph) isBlock()    {}
func (*Table) isBlock()        {}
func (*SectionBreak) isBlock() {}

type TextRun struct {
	Text  string
	Style TextStyle
}

// InlineObjectRef points into Document.InlineObjects.
type InlineObjectRef struct {
	ObjectID string
	Style    TextStyle
}

func (*TextRun) isInline()         {}
func (*InlineObjectRef) isInline() {}

type TextStyle struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool

	Link       *Link
	Foreground *Color
	Background *Color
}

// Link is either an absolute URL or a reference to a heading or bookmark
// inside the same document.
type Link struct {
	URL        string
	HeadingID  string
	BookmarkID string
}

// Href returns the link target usable in rendered output.
func (l *Link) Href() string {
	switch {
	case l == nil:
		return ""
	case l.URL != "":
		return l.URL
	case l.HeadingID != "":
		return "#" + l.HeadingID
	case l.BookmarkID != "":
		return "#" + l.BookmarkID
	}
	return ""
}

// Color channels are normalized to [0, 1].
type Color struct {
	R, G, B float64
}

type ParagraphStyle struct {
	NamedStyleType string
	HeadingID      string
	Alignment      string
}

// HeadingLevel returns 1-6 for HEADING_n named styles and 0 otherwise.
func (s ParagraphStyle) HeadingLevel() int {
	n, ok := strings.CutPrefix(s.NamedStyleType, "HEADING_")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(n)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

// merge overlays the non-empty fields of s on top of base.
func (s ParagraphStyle) merge(base ParagraphStyle) ParagraphStyle {
	out := base
	if s.NamedStyleType != "" {
		out.NamedStyleType = s.NamedStyleType
	}
	if s.HeadingID != "" {
		out.HeadingID = s.HeadingID
	}
	if s.Alignment != "" {
		out.Alignment = s.Alignment
	}
	return out
}

type NamedStyle struct {
	Type      string
	Paragraph ParagraphStyle
	Text      TextStyle
}

type Bullet struct {
	ListID       string
	NestingLevel int
}

// List records the glyph type used at each nesting level.
type List struct {
	GlyphTypes []string
}

var orderedGlyphs = map[string]bool{
	"DECIMAL":      true,
	"ZERO_DECIMAL": true,
	"UPPER_ALPHA":  true,
	"ALPHA":        true,
	"UPPER_ROMAN":  true,
	"ROMAN":        true,
}

// Ordered reports whether the list renders numbered at the given level.
func (l List) Ordered(level int) bool {
	if level < 0 || level >= len(l.GlyphTypes) {
		return false
	}
	return orderedGlyphs[l.GlyphTypes[level]]
}

type Image struct {
	URI   string
	Alt   string
	Title string
}

// EffectiveStyle resolves the paragraph's named style merged under its direct
// overrides.
func (d *Document) EffectiveStyle(p *Paragraph) ParagraphStyle {
	base := ParagraphStyle{}
	if d != nil && p.Style.NamedStyleType != "" {
		if ns, ok := d.NamedStyles[p.Style.NamedStyleType]; ok {
			base = ns.Paragraph
			base.NamedStyleType = ns.Type
		}
	}
	return p.Style.merge(base)
}

// OrderedList reports whether the bullet belongs to a numbered list. Unknown
// list IDs classify as unordered.
func (d *Document) OrderedList(b *Bullet) bool {
	if d == nil || b == nil {
		return false
	}
	l, ok := d.Lists[b.ListID]
	if !ok {
		return false
	}
	return l.Ordered(b.NestingLevel)
}

// PlainText concatenates the text runs of a paragraph, dropping the trailing
// paragraph terminator.
func PlainText(p *Paragraph) string {
	var sb strings.Builder
	for _, el := range p.Elements {
		if run, ok := el.(*TextRun); ok {
			sb.WriteString(run.Text)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CellText flattens a table cell to a single line of text.
func CellText(c TableCell) string {
	var parts []string
	for _, b := range c.Content {
		if p, ok := b.(*Paragraph); ok {
			if t := strings.TrimSpace(PlainText(p)); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}
