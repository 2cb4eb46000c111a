// Package extract derives SEO metadata for a blog article, from the AI when
// possible and from deterministic heuristics otherwise.
package extract

import (
	"regexp"
	"slices"
)

// Metadata is the SEO record published with every story.
type Metadata struct {
	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description"`
	HeadingH1      string `json:"heading_h1"`
	Slug           string `json:"slug"`
	ReadingTime    int    `json:"reading_time"`
	Language       string `json:"language"`
	CoverAlt       string `json:"cover_alt"`
}

const (
	MinReadingTime = 1
	MaxReadingTime = 12

	maxTitleRunes       = 70
	maxDescriptionRunes = 160
)

// Languages lists the supported language codes.
var Languages = []string{"en", "ja", "zh", "ko", "es", "fr", "de"}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether s is a non-empty lowercase ASCII slug.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// SupportedLanguage reports whether code is one of Languages.
func SupportedLanguage(code string) bool {
	return slices.Contains(Languages, code)
}

// wordsPerMinute is the reading speed per language. CJK languages count
// characters.
var wordsPerMinute = map[string]int{
	"en": 200,
	"es": 200,
	"fr": 200,
	"de": 180,
	"ko": 300,
	"ja": 500,
	"zh": 500,
}

// ReadingTime converts a word count into minutes, clamped to the published
// range.
func ReadingTime(words int, lang string) int {
	wpm := wordsPerMinute[lang]
	if wpm == 0 {
		wpm = 200
	}
	minutes := (words + wpm - 1) / wpm
	return clampReadingTime(minutes)
}

func clampReadingTime(m int) int {
	return min(max(m, MinReadingTime), MaxReadingTime)
}

var defaultTitles = map[string]string{
	"en": "Untitled Article",
	"ja": "無題の記事",
	"zh": "无标题文章",
	"ko": "제목 없는 글",
	"es": "Artículo sin título",
	"fr": "Article sans titre",
	"de": "Unbenannter Artikel",
}

var coverAltTemplates = map[string]string{
	"en": "Cover image for %s",
	"ja": "%sのカバー画像",
	"zh": "%s的封面图片",
	"ko": "%s 커버 이미지",
	"es": "Imagen de portada de %s",
	"fr": "Image de couverture pour %s",
	"de": "Titelbild für %s",
}

var descriptionTemplates = map[string]string{
	"en": "Learn about %s in this article.",
	"ja": "この記事では%sについて解説します。",
	"zh": "本文介绍%s的相关内容。",
	"ko": "이 글에서는 %s에 대해 알아봅니다.",
	"es": "Descubre todo sobre %s en este artículo.",
	"fr": "Découvrez %s dans cet article.",
	"de": "Erfahren Sie in diesem Artikel mehr über %s.",
}

// listSeparators joins keyword lists in descriptions.
var listSeparators = map[string]string{
	"ja": "、",
	"zh": "、",
}

func lookup(m map[string]string, lang string) string {
	if v, ok := m[lang]; ok {
		return v
	}
	return m["en"]
}
