// Package convert walks a Google Docs source tree and produces CMS rich text.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/richtext"
)

// Uploader rehosts an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, sourceURI, alt string) (string, error)
}

// HeadingAnchor returns a node to emit directly before a heading, or nil.
type HeadingAnchor func(level int, text string, newID func() string) richtext.Node

// TableRenderer turns a table's flattened cell texts into a single node, or
// nil to drop the table.
type TableRenderer func(rows [][]string, newID func() string) richtext.Node

// Converter maps source documents to rich text. It is safe for concurrent use;
// per-document state lives in the call.
type Converter struct {
	uploader    Uploader
	ownedDomain string
	anchor      HeadingAnchor
	table       TableRenderer
	newID       func() string
	log         *slog.Logger
}

type Option func(*Converter)

// WithOwnedDomain sets the hostname suffix treated as same-site.
func WithOwnedDomain(domain string) Option {
	return func(c *Converter) { c.ownedDomain = strings.ToLower(strings.TrimPrefix(domain, ".")) }
}

func WithHeadingAnchor(fn HeadingAnchor) Option {
	return func(c *Converter) { c.anchor = fn }
}

func WithTableRenderer(fn TableRenderer) Option {
	return func(c *Converter) { c.table = fn }
}

func WithIDFunc(fn func() string) Option {
	return func(c *Converter) { c.newID = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// New returns a converter. A nil uploader keeps source image URIs.
func New(uploader Uploader, opts ...Option) *Converter {
	c := &Converter{
		uploader:    uploader,
		ownedDomain: "notta.ai",
		anchor:      H2Anchor,
		table:       HTMLTable,
		newID:       uuid.NewString,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert walks the document body in order. It never fails: image upload
// errors fall back to the source URI and unknown elements are skipped.
// Uploads run sequentially in document order.
func (c *Converter) Convert(ctx context.Context, doc *gdoc.Document) *richtext.Doc {
	if doc == nil {
		return &richtext.Doc{}
	}
	log := c.log.With("doc_id", doc.ID)

	var nodes []richtext.Node
	for _, b := range doc.Body {
		switch blk := b.(type) {
		case *gdoc.Paragraph:
			nodes = append(nodes, c.paragraph(ctx, log, doc, blk)...)
		case *gdoc.Table:
			if n := c.table(tableText(blk), c.newID); n != nil {
				nodes = append(nodes, n)
			}
		case *gdoc.SectionBreak:
		default:
			log.Debug("skipping unknown block", "type", fmt.Sprintf("%T", b))
		}
	}
	return &richtext.Doc{Content: richtext.Normalize(nodes)}
}

func (c *Converter) paragraph(ctx context.Context, log *slog.Logger, doc *gdoc.Document, p *gdoc.Paragraph) []richtext.Node {
	inlines := c.inlines(ctx, log, doc, p.Elements)

	if p.Bullet != nil {
		return []richtext.Node{c.listItem(doc, p.Bullet, inlines)}
	}

	level := doc.EffectiveStyle(p).HeadingLevel()
	if level == 0 {
		return []richtext.Node{&richtext.Paragraph{Content: inlines}}
	}

	heading := &richtext.Heading{Level: level, Content: inlines}
	text := strings.TrimSpace(gdoc.PlainText(p))
	if c.anchor != nil {
		if a := c.anchor(level, text, c.newID); a != nil {
			return []richtext.Node{a, heading}
		}
	}
	return []richtext.Node{heading}
}

// listItem wraps the item in one list layer per nesting level. The
// normalizer later folds these layers into proper nesting.
func (c *Converter) listItem(doc *gdoc.Document, b *gdoc.Bullet, inlines []richtext.Node) richtext.Node {
	ordered := doc.OrderedList(b)
	var node richtext.Node = &richtext.ListItem{Content: []richtext.Node{&richtext.Paragraph{Content: inlines}}}
	for range max(b.NestingLevel, 0) + 1 {
		if ordered {
			node = &richtext.OrderedList{Content: []richtext.Node{node}}
		} else {
			node = &richtext.BulletList{Content: []richtext.Node{node}}
		}
	}
	return node
}

func (c *Converter) inlines(ctx context.Context, log *slog.Logger, doc *gdoc.Document, elems []gdoc.Inline) []richtext.Node {
	var out []richtext.Node
	for i, el := range elems {
		switch e := el.(type) {
		case *gdoc.TextRun:
			text := e.Text
			if i == len(elems)-1 {
				text = strings.TrimSuffix(text, "\n")
			}
			if text == "" {
				continue
			}
			out = append(out, &richtext.Text{Text: text, Marks: c.marks(e.Style)})
		case *gdoc.InlineObjectRef:
			if n := c.image(ctx, log, doc, e); n != nil {
				out = append(out, n)
			}
		}
	}
	return out
}

func (c *Converter) image(ctx context.Context, log *slog.Logger, doc *gdoc.Document, ref *gdoc.InlineObjectRef) richtext.Node {
	img, ok := doc.InlineObjects[ref.ObjectID]
	if !ok || img.URI == "" {
		log.Debug("inline object without image", "object_id", ref.ObjectID)
		return nil
	}
	alt := img.Alt
	if alt == "" {
		alt = img.Title
	}

	src := img.URI
	if c.uploader != nil {
		uploaded, err := c.uploader.Upload(ctx, img.URI, alt)
		if err != nil {
			log.Warn("image upload failed, keeping source uri", "object_id", ref.ObjectID, "error", err)
		} else {
			src = uploaded
		}
	}
	return &richtext.Image{Src: src, Alt: alt, Title: img.Title}
}

// marks maps a text style onto the mark set.
func (c *Converter) marks(s gdoc.TextStyle) []richtext.Mark {
	var marks []richtext.Mark
	if s.Bold {
		marks = append(marks, richtext.Mark{Type: richtext.MarkBold})
	}
	if s.Italic {
		marks = append(marks, richtext.Mark{Type: richtext.MarkItalic})
	}
	if s.Underline {
		marks = append(marks, richtext.Mark{Type: richtext.MarkUnderline})
	}
	if s.Strikethrough {
		marks = append(marks, richtext.Mark{Type: richtext.MarkStrike})
	}
	if href := s.Link.Href(); href != "" {
		marks = append(marks, c.link(href))
	}
	if s.Foreground != nil {
		marks = append(marks, richtext.Mark{Type: richtext.MarkTextStyle, Color: RGB(*s.Foreground)})
	}
	if s.Background != nil {
		marks = append(marks, richtext.Mark{Type: richtext.MarkHighlight, Color: RGB(*s.Background)})
	}
	return richtext.Marks(marks...)
}

func (c *Converter) link(href string) richtext.Mark {
	if IsExternal(href, c.ownedDomain) {
		return richtext.Mark{Type: richtext.MarkLink, Href: href, Target: "_blank", Rel: "nofollow noreferrer"}
	}
	return richtext.Mark{Type: richtext.MarkLink, Href: href, Target: "_self"}
}

// IsExternal reports whether href leaves the owned domain. Relative links,
// fragments and hosts equal to or under the domain are internal. Unparsable
// absolute links count as external.
func IsExternal(href, ownedDomain string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if ownedDomain == "" {
		return true
	}
	return host != ownedDomain && !strings.HasSuffix(host, "."+ownedDomain)
}

// RGB formats a normalized color as rgb(r,g,b) with channels scaled to 0-255.
func RGB(c gdoc.Color) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	return int(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

func tableText(t *gdoc.Table) [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = gdoc.CellText(cell)
		}
		rows = append(rows, cells)
	}
	return rows
}
