package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 60

// slugTerms maps common non-Latin product and blog terms to English slug
// words. Anything not covered is dropped by transliteration.
var slugTerms = map[string]string{
	"議事録":     "meeting-minutes",
	"会議":      "meeting",
	"会议":      "meeting",
	"會議":      "meeting",
	"文字起こし":   "transcription",
	"转录":      "transcription",
	"轉錄":      "transcription",
	"音声":      "audio",
	"语音":      "voice",
	"録音":      "recording",
	"录音":      "recording",
	"要約":      "summary",
	"摘要":      "summary",
	"总结":      "summary",
	"翻訳":      "translation",
	"翻译":      "translation",
	"使い方":     "how-to-use",
	"方法":      "how-to",
	"ツール":     "tools",
	"工具":      "tools",
	"アプリ":     "app",
	"应用":      "app",
	"おすすめ":    "best",
	"推荐":      "best",
	"比較":      "comparison",
	"比较":      "comparison",
	"無料":      "free",
	"免费":      "free",
	"ガイド":     "guide",
	"指南":      "guide",
	"オンライン":   "online",
	"在线":      "online",
	"動画":      "video",
	"视频":      "video",
	"インタビュー":  "interview",
	"采访":      "interview",
	"회의록":     "meeting-minutes",
	"회의":      "meeting",
	"녹음":      "recording",
	"요약":      "summary",
	"번역":      "translation",
	"받아쓰기":    "transcription",
}

// slugTermKeys is slugTerms sorted longest first so compound terms win.
var slugTermKeys = func() []string {
	keys := make([]string, 0, len(slugTerms))
	for k := range slugTerms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var latinFold = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "đ", "d", "ł", "l", "þ", "th",
)

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify converts s into a lowercase ASCII slug. Known CJK terms become
// English words, accents are stripped, and everything else outside [a-z0-9]
// collapses into single hyphens. The result may be empty.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range slugTermKeys {
		if strings.Contains(s, k) {
			s = strings.ReplaceAll(s, k, " "+slugTerms[k]+" ")
		}
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = latinFold.Replace(s)

	s = nonSlugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
		if i := strings.LastIndex(s, "-"); i > maxSlugLen/2 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	return s
}

// SlugFromTitle is Slugify that never returns an empty slug: titles with
// nothing transliterable get a stable hash-based slug.
func SlugFromTitle(title string) string {
	if s := Slugify(title); s != "" {
		return s
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "article"
	}
	sum := sha256.Sum256([]byte(title))
	return "article-" + hex.EncodeToString(sum[:4])
}
