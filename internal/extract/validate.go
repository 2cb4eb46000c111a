package extract

import (
	"fmt"
	"strings"
)

// Facts is what validation knows about the real document, independent of
// what the model saw.
type Facts struct {
	// Language forces the output language when non-empty.
	Language string
	Outline  Outline
	// Summarized means the model saw a digest, so counts it reported are
	// not trusted.
	Summarized bool
}

// Validate repairs m in place so every field satisfies the published
// invariants. It never rejects a record.
func Validate(m *Metadata, f Facts) {
	m.SEOTitle = strings.TrimSpace(m.SEOTitle)
	m.SEODescription = strings.TrimSpace(m.SEODescription)
	m.HeadingH1 = strings.TrimSpace(m.HeadingH1)
	m.CoverAlt = strings.TrimSpace(m.CoverAlt)
	m.Language = strings.ToLower(strings.TrimSpace(m.Language))

	switch {
	case f.Language != "" && SupportedLanguage(f.Language):
		m.Language = f.Language
	case !SupportedLanguage(m.Language):
		m.Language = DetectLanguage(f.Outline.Plain)
	}
	lang := m.Language

	// A digest loses detail, so the real first heading wins when it says
	// more than what came back.
	if f.Summarized && len([]rune(f.Outline.Title)) > len([]rune(m.HeadingH1)) {
		m.HeadingH1 = f.Outline.Title
	}
	if m.HeadingH1 == "" {
		m.HeadingH1 = firstNonEmpty(f.Outline.Title, m.SEOTitle, lookup(defaultTitles, lang))
	}
	if m.SEOTitle == "" {
		m.SEOTitle = m.HeadingH1
	}
	m.SEOTitle = truncateRunes(m.SEOTitle, maxTitleRunes)

	if m.SEODescription == "" {
		m.SEODescription = describe(f.Outline, lang)
	}
	m.SEODescription = truncateRunes(m.SEODescription, maxDescriptionRunes)

	slug := strings.ToLower(strings.TrimSpace(m.Slug))
	if !ValidSlug(slug) {
		slug = Slugify(slug)
	}
	if slug == "" {
		slug = SlugFromTitle(m.SEOTitle)
	}
	m.Slug = slug

	computed := ReadingTime(f.Outline.Words, lang)
	if f.Summarized || m.ReadingTime < MinReadingTime || m.ReadingTime > MaxReadingTime {
		m.ReadingTime = computed
	}

	if m.CoverAlt == "" {
		m.CoverAlt = fmt.Sprintf(lookup(coverAltTemplates, lang), m.HeadingH1)
	}
}

// describe builds a description from the first substantial paragraph, or
// from a keyword template when the document has no prose.
func describe(o Outline, lang string) string {
	for _, p := range o.Paragraphs {
		if len([]rune(p)) >= 20 {
			return truncateRunes(p, maxDescriptionRunes)
		}
	}
	kw := TopKeywords(o.Plain, lang, 3)
	if len(kw) == 0 {
		kw = []string{firstNonEmpty(o.Title, lookup(defaultTitles, lang))}
	}
	sep, ok := listSeparators[lang]
	if !ok {
		sep = ", "
	}
	return fmt.Sprintf(lookup(descriptionTemplates, lang), strings.Join(kw, sep))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
