package convert

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/richtext"
)

const (
	AnchorComponent = "anchor"
	TableComponent  = "custom_html"
)

const tableCSS = `.gdoc-table{overflow-x:auto;margin:1.5em 0}` +
	`.gdoc-table table{width:100%;border-collapse:collapse;font-size:0.95em}` +
	`.gdoc-table th,.gdoc-table td{border:1px solid #e5e7eb;padding:8px 12px;text-align:left;vertical-align:top}` +
	`.gdoc-table th{background:#f9fafb;font-weight:600}`

// H2Anchor emits an anchor block carrying the heading text before every
// non-empty level 2 heading.
func H2Anchor(level int, text string, newID func() string) richtext.Node {
	if level != 2 || text == "" {
		return nil
	}
	return &richtext.Blok{
		ID:        newID(),
		Component: AnchorComponent,
		Fields:    map[string]any{"text": text},
	}
}

// HTMLTable embeds the table as one HTML block. The first row is the header.
func HTMLTable(rows [][]string, newID func() string) richtext.Node {
	if len(rows) == 0 {
		return nil
	}
	return &richtext.Blok{
		ID:        newID(),
		Component: TableComponent,
		Fields:    map[string]any{"html": TableHTML(rows)},
	}
}

// TableHTML renders rows as a styled HTML table with escaped cell text.
func TableHTML(rows [][]string) string {
	wrapper := element(atom.Div, html.Attribute{Key: "class", Val: "gdoc-table"})
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: tableCSS})
	wrapper.AppendChild(style)

	table := element(atom.Table)
	wrapper.AppendChild(table)

	thead := element(atom.Thead)
	thead.AppendChild(row(atom.Th, rows[0]))
	table.AppendChild(thead)

	if len(rows) > 1 {
		tbody := element(atom.Tbody)
		for _, r := range rows[1:] {
			tbody.AppendChild(row(atom.Td, r))
		}
		table.AppendChild(tbody)
	}

	var buf bytes.Buffer
	// Render only fails on writer errors.
	_ = html.Render(&buf, wrapper)
	return buf.String()
}

func row(cell atom.Atom, cells []string) *html.Node {
	tr := element(atom.Tr)
	for _, text := range cells {
		c := element(cell)
		if text != "" {
			c.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		}
		tr.AppendChild(c)
	}
	return tr
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
