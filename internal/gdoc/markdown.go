package gdoc

import (
	"strings"
)

// Markdown renders the source tree as CommonMark. Consecutive list items are
// kept on adjacent lines so they read as one list.
func Markdown(doc *Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	prevList := false
	for _, b := range doc.Body {
		var chunk string
		isList := false
		switch blk := b.(type) {
		case *Paragraph:
			chunk, isList = renderParagraph(doc, blk)
		case *Table:
			chunk = renderTable(blk)
		case *SectionBreak:
			continue
		}
		if chunk == "" {
			continue
		}
		if sb.Len() > 0 {
			if prevList && isList {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(chunk)
		prevList = isList
	}
	return sb.String()
}

func renderParagraph(doc *Document, p *Paragraph) (string, bool) {
	text := strings.TrimSpace(renderInlines(doc, p.Elements))
	if text == "" {
		return "", false
	}
	if p.Bullet != nil {
		marker := "- "
		if doc.OrderedList(p.Bullet) {
			marker = "1. "
		}
		return strings.Repeat("  ", p.Bullet.NestingLevel) + marker + text, true
	}
	if level := doc.EffectiveStyle(p).HeadingLevel(); level > 0 {
		return strings.Repeat("#", level) + " " + text, false
	}
	return text, false
}

func renderInlines(doc *Document, elems []Inline) string {
	var sb strings.Builder
	for _, el := range elems {
		switch e := el.(type) {
		case *TextRun:
			sb.WriteString(renderRun(e))
		case *InlineObjectRef:
			img, ok := doc.InlineObjects[e.ObjectID]
			if !ok || img.URI == "" {
				continue
			}
			sb.WriteString("![" + img.Alt + "](" + img.URI + ")")
		}
	}
	return sb.String()
}

func renderRun(r *TextRun) string {
	text := strings.ReplaceAll(r.Text, "\n", "")
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	switch {
	case r.Style.Bold && r.Style.Italic:
		core = "***" + core + "***"
	case r.Style.Bold:
		core = "**" + core + "**"
	case r.Style.Italic:
		core = "*" + core + "*"
	}
	if r.Style.Strikethrough {
		core = "~~" + core + "~~"
	}
	if href := r.Style.Link.Href(); href != "" {
		core = "[" + core + "](" + href + ")"
	}
	return lead + core + trail
}

func renderTable(t *Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.ReplaceAll(CellText(c), "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			sb.WriteString("\n| " + strings.Join(sep, " | ") + " |")
		}
		if i < len(t.Rows)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
