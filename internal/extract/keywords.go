package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TopKeywords returns the n most frequent terms in text. Latin and Hangul
// text is split on word boundaries with stopwords removed; Chinese and
// Japanese runs of Han or Katakana count whole when short and as bigrams
// when long. Ties keep first-occurrence order.
func TopKeywords(text, lang string, n int) []string {
	counts := map[string]int{}
	first := map[string]int{}
	pos := 0
	add := func(term string) {
		if _, seen := first[term]; !seen {
			first[term] = pos
		}
		counts[term]++
		pos++
	}

	stop := stopwordIndex[lang]
	if stop == nil {
		stop = stopwordIndex["en"]
	}

	var latin []rune
	var cjk []rune
	flushLatin := func() {
		if len(latin) > 0 {
			w := strings.ToLower(string(latin))
			if utf8.RuneCountInString(w) >= 3 && !stop[w] && !allDigits(w) {
				add(w)
			}
			latin = latin[:0]
		}
	}
	flushCJK := func() {
		switch l := len(cjk); {
		case l >= 2 && l <= 4:
			add(string(cjk))
		case l > 4:
			for i := 0; i+2 <= l; i++ {
				add(string(cjk[i : i+2]))
			}
		}
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Han, unicode.Katakana) || r == 'ー':
			flushLatin()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) && !unicode.Is(unicode.Hiragana, r) || unicode.IsDigit(r):
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return first[terms[i]] < first[terms[j]]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
