package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	summaryKeywords    = 10
	summarySentences   = 8
	maxSentenceRunes   = 200
	maxOutlineHeadings = 40
)

var sentenceRe = regexp.MustCompile(`[^.!?。！？\n]+[.!?。！？]?`)

// relevance matches sentences that usually carry an article's point: how-tos,
// benefits, definitions and conclusions.
var relevance = map[string]*regexp.Regexp{
	"en": regexp.MustCompile(`(?i)\b(how to|benefits?|features?|steps?|guide|best|tips?|why|what is|in summary|conclusion|helps?|allows?)\b`),
	"ja": regexp.MustCompile(`(方法|メリット|機能|ステップ|ポイント|とは|まとめ|おすすめ|できます|解説)`),
	"zh": regexp.MustCompile(`(方法|优势|功能|步骤|技巧|什么是|总结|推荐|可以|帮助)`),
	"ko": regexp.MustCompile(`(방법|장점|기능|단계|팁|이란|요약|추천|도움)`),
	"es": regexp.MustCompile(`(?i)(cómo|beneficios?|funciones?|pasos?|guía|mejores?|consejos?|qué es|en resumen)`),
	"fr": regexp.MustCompile(`(?i)(comment|avantages?|fonctionnalités?|étapes?|guide|meilleurs?|conseils?|qu'est-ce|en résumé)`),
	"de": regexp.MustCompile(`(?i)(wie|vorteile?|funktionen?|schritte?|anleitung|beste[nr]?|tipps?|was ist|zusammenfassung)`),
}

// Summarize condenses a long document into the structural digest sent to
// the model in place of the full text.
func Summarize(o Outline, lang string) string {
	var sb strings.Builder
	if o.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", o.Title)
	}

	if len(o.Headings) > 0 {
		sb.WriteString("Outline:\n")
		for i, h := range o.Headings {
			if i == maxOutlineHeadings {
				fmt.Fprintf(&sb, "  ... %d more headings\n", len(o.Headings)-i)
				break
			}
			fmt.Fprintf(&sb, "%s- %s\n", strings.Repeat("  ", max(h.Level-1, 0)), h.Text)
		}
	}

	if len(o.Paragraphs) > 0 {
		fmt.Fprintf(&sb, "First paragraph: %s\n", truncateRunes(o.Paragraphs[0], maxSentenceRunes*2))
	}

	if kw := TopKeywords(o.Plain, lang, summaryKeywords); len(kw) > 0 {
		fmt.Fprintf(&sb, "Top keywords: %s\n", strings.Join(kw, ", "))
	}

	if core := CoreSentences(o, lang, summarySentences); len(core) > 0 {
		sb.WriteString("Key sentences:\n")
		for _, s := range core {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	fmt.Fprintf(&sb, "Length: %d words\n", o.Words)
	return sb.String()
}

// CoreSentences selects up to n sentences matching the language's relevance
// pattern, in document order. Without matches the leading sentence of each
// paragraph is used.
func CoreSentences(o Outline, lang string, n int) []string {
	re := relevance[lang]
	if re == nil {
		re = relevance["en"]
	}

	var picked, leads []string
	for _, p := range o.Paragraphs {
		sentences := sentenceRe.FindAllString(p, -1)
		for i, s := range sentences {
			s = strings.TrimSpace(s)
			if utf8.RuneCountInString(s) < 8 {
				continue
			}
			s = truncateRunes(s, maxSentenceRunes)
			if i == 0 && len(leads) < n {
				leads = append(leads, s)
			}
			if re.MatchString(s) && len(picked) < n {
				picked = append(picked, s)
			}
		}
	}
	if len(picked) == 0 {
		return leads
	}
	return picked
}

// truncateRunes shortens s to at most n runes, ending in an ellipsis when cut.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:max(n, 0)])
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
