package gdoc

import (
	"google.golang.org/api/docs/v1"
)

// FromAPI maps a Docs API document into the source tree. Element kinds the
// converter has no use for (tables of contents, page breaks, footnote
// references, equations) are dropped.
func FromAPI(doc *docs.Document) *Document {
	if doc == nil {
		return &Document{}
	}
	out := &Document{
		ID:            doc.DocumentId,
		Title:         doc.Title,
		Lists:         make(map[string]List, len(doc.Lists)),
		InlineObjects: make(map[string]Image, len(doc.InlineObjects)),
		NamedStyles:   make(map[string]NamedStyle),
	}
	if doc.Body != nil {
		out.Body = fromStructural(doc.Body.Content)
	}

	for id, l := range doc.Lists {
		var glyphs []string
		if l.ListProperties != nil {
			for _, lvl := range l.ListProperties.NestingLevels {
				if lvl == nil {
					glyphs = append(glyphs, "")
					continue
				}
				glyphs = append(glyphs, lvl.GlyphType)
			}
		}
		out.Lists[id] = List{GlyphTypes: glyphs}
	}

	for id, obj := range doc.InlineObjects {
		if obj.InlineObjectProperties == nil || obj.InlineObjectProperties.EmbeddedObject == nil {
			continue
		}
		emb := obj.InlineObjectProperties.EmbeddedObject
		img := Image{Alt: emb.Description, Title: emb.Title}
		if emb.ImageProperties != nil {
			img.URI = emb.ImageProperties.ContentUri
			if img.URI == "" {
				img.URI = emb.ImageProperties.SourceUri
			}
		}
		out.InlineObjects[id] = img
	}

	if doc.NamedStyles != nil {
		for _, ns := range doc.NamedStyles.Styles {
			if ns == nil {
				continue
			}
			out.NamedStyles[ns.NamedStyleType] = NamedStyle{
				Type:      ns.NamedStyleType,
				Paragraph: fromParagraphStyle(ns.ParagraphStyle),
				Text:      fromTextStyle(ns.TextStyle),
			}
		}
	}
	return out
}

func fromStructural(elems []*docs.StructuralElement) []Block {
	blocks := make([]Block, 0, len(elems))
	for _, el := range elems {
		switch {
		case el == nil:
		case el.Paragraph != nil:
			blocks = append(blocks, fromParagraph(el.Paragraph))
		case el.Table != nil:
			blocks = append(blocks, fromTable(el.Table))
		case el.SectionBreak != nil:
			blocks = append(blocks, &SectionBreak{})
		}
	}
	return blocks
}

func fromParagraph(p *docs.Paragraph) *Paragraph {
	para := &Paragraph{Style: fromParagraphStyle(p.ParagraphStyle)}
	if p.Bullet != nil {
		para.Bullet = &Bullet{ListID: p.Bullet.ListId, NestingLevel: int(p.Bullet.NestingLevel)}
	}
	for _, el := range p.Elements {
		switch {
		case el == nil:
		case el.TextRun != nil:
			para.Elements = append(para.Elements, &TextRun{
				Text:  el.TextRun.Content,
				Style: fromTextStyle(el.TextRun.TextStyle),
			})
		case el.InlineObjectElement != nil:
			para.Elements = append(para.Elements, &InlineObjectRef{
				ObjectID: el.InlineObjectElement.InlineObjectId,
				Style:    fromTextStyle(el.InlineObjectElement.TextStyle),
			})
		}
	}
	return para
}

func fromTable(t *docs.Table) *Table {
	table := &Table{}
	for _, row := range t.TableRows {
		if row == nil {
			continue
		}
		cells := make([]TableCell, 0, len(row.TableCells))
		for _, c := range row.TableCells {
			if c == nil {
				cells = append(cells, TableCell{})
				continue
			}
			cells = append(cells, TableCell{Content: fromStructural(c.Content)})
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func fromParagraphStyle(s *docs.ParagraphStyle) ParagraphStyle {
	if s == nil {
		return ParagraphStyle{}
	}
	return ParagraphStyle{
		NamedStyleType: s.NamedStyleType,
		HeadingID:      s.HeadingId,
		Alignment:      s.Alignment,
	}
}

func fromTextStyle(s *docs.TextStyle) TextStyle {
	if s == nil {
		return TextStyle{}
	}
	out := TextStyle{
		Bold:          s.Bold,
		Italic:        s.Italic,
		Underline:     s.Underline,
		Strikethrough: s.Strikethrough,
		Foreground:    fromColor(s.ForegroundColor),
		Background:    fromColor(s.BackgroundColor),
	}
	if s.Link != nil {
		out.Link = &Link{URL: s.Link.Url, HeadingID: s.Link.HeadingId, BookmarkID: s.Link.BookmarkId}
	}
	return out
}

func fromColor(c *docs.OptionalColor) *Color {
	if c == nil || c.Color == nil || c.Color.RgbColor == nil {
		return nil
	}
	rgb := c.Color.RgbColor
	return &Color{R: rgb.Red, G: rgb.Green, B: rgb.Blue}
}
