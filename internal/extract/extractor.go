package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
)

const (
	DefaultDirectLimit = 12000
	DefaultHardLimit   = 60000

	// headExcerpt is how much of the article accompanies the digest between
	// the two limits.
	headExcerpt = 4000
)

type Options struct {
	// DirectLimit is the largest article, in runes, sent to the model whole.
	DirectLimit int
	// HardLimit is the largest article that still gets a head excerpt next
	// to its digest. Beyond it only the digest is sent.
	HardLimit   int
	MaxTokens   int
	Temperature *float64
	Call        ai.CallOptions
}

// Extractor produces Metadata for an article through the AI backend.
type Extractor struct {
	ai   ai.Completer
	opts Options
	log  *slog.Logger
}

func NewExtractor(c ai.Completer, opts Options, log *slog.Logger) *Extractor {
	if opts.DirectLimit <= 0 {
		opts.DirectLimit = DefaultDirectLimit
	}
	if opts.HardLimit < opts.DirectLimit {
		opts.HardLimit = max(DefaultHardLimit, opts.DirectLimit)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Call.Log == nil {
		opts.Call.Log = log
	}
	return &Extractor{ai: c, opts: opts, log: log}
}

// ErrNoModel is returned by Extract when the extractor has no backend.
var ErrNoModel = errors.New("extract metadata: no model configured")

// Extract asks the model for metadata and repairs the answer. lang, when a
// supported code, is used verbatim; otherwise the language is detected from
// the text. It fails only once the call's attempts are exhausted.
func (e *Extractor) Extract(ctx context.Context, markdown, lang string) (*Metadata, error) {
	if e.ai == nil {
		return nil, ErrNoModel
	}
	o := ParseOutline(markdown)
	if !SupportedLanguage(lang) {
		lang = DetectLanguage(o.Plain)
	}

	body, summarized := e.body(markdown, o, lang)
	req := ai.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(lang, body, summarized),
		Schema:      schema(lang),
		SchemaName:  "seo_metadata",
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	}

	var m Metadata
	if err := ai.CompleteJSON(ctx, e.ai, req, &m, e.opts.Call); err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}
	Validate(&m, Facts{Language: lang, Outline: o, Summarized: summarized})
	return &m, nil
}

// Generate is Extract with the heuristic record substituted on failure. The
// second result reports whether the model's answer was used.
func (e *Extractor) Generate(ctx context.Context, markdown, lang string) (Metadata, bool) {
	m, err := e.Extract(ctx, markdown, lang)
	if err == nil {
		return *m, true
	}
	e.log.Warn("metadata extraction failed, using fallback", "error", err)
	return Fallback(markdown, lang), false
}

func (e *Extractor) body(markdown string, o Outline, lang string) (string, bool) {
	n := utf8.RuneCountInString(markdown)
	if n <= e.opts.DirectLimit {
		return markdown, false
	}
	digest := Summarize(o, lang)
	e.log.Info("article over direct limit, sending digest", "runes", n, "direct_limit", e.opts.DirectLimit)
	if n > e.opts.HardLimit {
		return digest, true
	}
	var sb strings.Builder
	sb.WriteString(digest)
	sb.WriteString("\nOpening of the article:\n")
	sb.WriteString(truncateRunes(markdown, headExcerpt))
	return sb.String(), true
}
