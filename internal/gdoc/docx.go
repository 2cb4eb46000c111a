package gdoc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

const docxBulletList = "docx-bullets"

// DocxSource reads local .docx files, addressed by path. Only paragraph text,
// heading styles and list paragraphs survive; run formatting does not.
type DocxSource struct{}

func (DocxSource) FetchTree(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &Document{
		ID:            path,
		Title:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Lists:         map[string]List{docxBulletList: {GlyphTypes: []string{"", "", ""}}},
		InlineObjects: map[string]Image{},
		NamedStyles:   map[string]NamedStyle{},
	}

	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		p := &Paragraph{Elements: []Inline{&TextRun{Text: text + "\n"}}}

		style := docxStyle(para)
		switch level := docxHeadingLevel(style); {
		case level > 0:
			p.Style.NamedStyleType = "HEADING_" + strconv.Itoa(level)
		case strings.EqualFold(style, "ListParagraph") || strings.EqualFold(style, "List Paragraph"):
			p.Bullet = &Bullet{ListID: docxBulletList}
		default:
			p.Style.NamedStyleType = "NORMAL_TEXT"
		}
		if strings.EqualFold(style, "Title") && text != "" {
			doc.Title = text
		}
		doc.Body = append(doc.Body, p)
	}
	return doc, nil
}

// FetchRenderedText renders the parsed tree, since a local file has no
// separate export.
func (s DocxSource) FetchRenderedText(ctx context.Context, path string) (string, error) {
	doc, err := s.FetchTree(ctx, path)
	if err != nil {
		return "", err
	}
	return Markdown(doc), nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel accepts both "Heading2" and "heading 2".
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	n, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(n)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
