package extract

import (
	"strings"
	"unicode"
)

const (
	cjkRatio  = 0.2
	kanaShare = 0.1
)

// DetectLanguage classifies text by script. Kana anywhere in a CJK-dominant
// text means Japanese; Han without kana means Chinese. Latin text is scored
// against small stopword lists and defaults to English.
func DetectLanguage(text string) string {
	var han, kana, hangul, latin int
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	total := han + kana + hangul + latin
	if total == 0 {
		return "en"
	}

	if cjk := han + kana; float64(cjk)/float64(total) >= cjkRatio {
		if float64(kana)/float64(cjk) >= kanaShare {
			return "ja"
		}
		return "zh"
	}
	if float64(hangul)/float64(total) >= cjkRatio {
		return "ko"
	}
	return latinLanguage(text)
}

var stopwords = map[string][]string{
	"en": {"the", "and", "of", "to", "is", "in", "that", "for", "with", "you", "this", "are"},
	"es": {"el", "la", "los", "las", "que", "y", "es", "por", "para", "con", "una", "del"},
	"fr": {"le", "les", "des", "et", "est", "une", "pour", "dans", "avec", "du", "sur", "vous"},
	"de": {"der", "die", "das", "und", "ist", "nicht", "mit", "ein", "eine", "für", "auf", "sie"},
}

var stopwordIndex = func() map[string]map[string]bool {
	idx := make(map[string]map[string]bool, len(stopwords))
	for lang, words := range stopwords {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[w] = true
		}
		idx[lang] = set
	}
	return idx
}()

func latinLanguage(text string) string {
	scores := map[string]int{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), notLetter) {
		for lang, set := range stopwordIndex {
			if set[w] {
				scores[lang]++
			}
		}
	}
	best, bestScore := "en", scores["en"]
	for _, lang := range []string{"es", "fr", "de"} {
		if scores[lang] > bestScore {
			best, bestScore = lang, scores[lang]
		}
	}
	return best
}

func notLetter(r rune) bool {
	return !unicode.IsLetter(r)
}

// isCJK matches scripts written without spaces between words. Hangul is
// space separated and counts like Latin text.
func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// CountWords counts space-separated words plus one per Chinese or Japanese
// character.
func CountWords(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			words++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				words++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return words
}
