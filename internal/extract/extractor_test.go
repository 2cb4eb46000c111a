package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
)

type fakeCompleter struct {
	mu      sync.Mutex
	replies []any // string or error
	prompts []string
}

func (f *fakeCompleter) Model() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req ai.Request) (*ai.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(len(f.prompts), len(f.replies)-1)
	f.prompts = append(f.prompts, req.Prompt)
	switch r := f.replies[i].(type) {
	case error:
		return nil, r
	case string:
		return &ai.Completion{Text: r}, nil
	}
	panic("bad reply")
}

const goodReply = `{"seo_title":"Meeting Notes","seo_description":"How to take meeting notes.","heading_h1":"Meeting Notes","slug":"meeting-notes","reading_time":3,"language":"en","cover_alt":"Notes on a desk"}`

func newTestExtractor(c ai.Completer, direct, hard int) *Extractor {
	return NewExtractor(c, Options{
		DirectLimit: direct,
		HardLimit:   hard,
		Call:        ai.CallOptions{Attempts: 2, Backoff: func(int) time.Duration { return 0 }},
	}, nil)
}

func TestExtract_Direct(t *testing.T) {
	md := "# Meeting Notes\n\nTaking notes in meetings is easy with the right tool."
	c := &fakeCompleter{replies: []any{goodReply}}
	m, err := newTestExtractor(c, 1000, 5000).Extract(context.Background(), md, "en")
	require.NoError(t, err)
	require.Equal(t, Metadata{
		SEOTitle:       "Meeting Notes",
		SEODescription: "How to take meeting notes.",
		HeadingH1:      "Meeting Notes",
		Slug:           "meeting-notes",
		ReadingTime:    3,
		Language:       "en",
		CoverAlt:       "Notes on a desk",
	}, *m)
	require.Len(t, c.prompts, 1)
	require.Contains(t, c.prompts[0], md)
	require.Contains(t, c.prompts[0], "Language: en")
	require.NotContains(t, c.prompts[0], "digest")
}

func TestExtract_DetectsLanguage(t *testing.T) {
	reply := strings.Replace(goodReply, `"language":"en"`, `"language":"ja"`, 1)
	c := &fakeCompleter{replies: []any{reply}}
	m, err := newTestExtractor(c, 1000, 5000).Extract(context.Background(), "# 議事録\n\nこれは会議の議事録です。", "")
	require.NoError(t, err)
	require.Equal(t, "ja", m.Language)
	require.Contains(t, c.prompts[0], "Language: ja")
}

func TestExtract_SummaryTiers(t *testing.T) {
	long := "# Meeting Notes Guide\n\n" + strings.Repeat("This tool helps teams write notes. ", 40)

	t.Run("between limits sends digest and excerpt", func(t *testing.T) {
		c := &fakeCompleter{replies: []any{goodReply}}
		m, err := newTestExtractor(c, 100, 100000).Extract(context.Background(), long, "en")
		require.NoError(t, err)
		require.Contains(t, c.prompts[0], "structural digest")
		require.Contains(t, c.prompts[0], "Title: Meeting Notes Guide")
		require.Contains(t, c.prompts[0], "Opening of the article:")
		require.Equal(t, "Meeting Notes Guide", m.HeadingH1)
		require.Equal(t, ReadingTime(CountWords(ParseOutline(long).Plain), "en"), m.ReadingTime)
	})

	t.Run("over hard limit sends digest only", func(t *testing.T) {
		c := &fakeCompleter{replies: []any{goodReply}}
		_, err := newTestExtractor(c, 100, 200).Extract(context.Background(), long, "en")
		require.NoError(t, err)
		require.Contains(t, c.prompts[0], "Key sentences:")
		require.NotContains(t, c.prompts[0], "Opening of the article:")
	})
}

func TestExtract_RetriesMalformed(t *testing.T) {
	c := &fakeCompleter{replies: []any{"not json", `{"slug":"x"}`, goodReply}}
	ex := NewExtractor(c, Options{Call: ai.CallOptions{Attempts: 3, Backoff: func(int) time.Duration { return 0 }}}, nil)
	m, err := ex.Extract(context.Background(), "# Meeting Notes\n\nBody text.", "en")
	require.NoError(t, err)
	require.Equal(t, "meeting-notes", m.Slug)
	require.Len(t, c.prompts, 3)
}

func TestExtract_Exhausted(t *testing.T) {
	c := &fakeCompleter{replies: []any{"garbage"}}
	_, err := newTestExtractor(c, 1000, 5000).Extract(context.Background(), "# T\n\nBody.", "en")
	var callErr *ai.CallError
	require.ErrorAs(t, err, &callErr)
	require.Equal(t, 2, callErr.Attempts)
	require.ErrorIs(t, err, ai.ErrMalformedOutput)
}

func TestGenerate_FallsBack(t *testing.T) {
	md := "# Meeting Notes Guide\n\nThis guide explains how to take meeting notes quickly."
	c := &fakeCompleter{replies: []any{errors.New("invalid api key")}}
	m, ok := newTestExtractor(c, 1000, 5000).Generate(context.Background(), md, "en")
	require.False(t, ok)
	require.Equal(t, Fallback(md, "en"), m)
	require.Len(t, c.prompts, 1)
}

func TestGenerate_NoModel(t *testing.T) {
	md := "# Meeting Notes\n\nBody."
	ex := newTestExtractor(nil, 1000, 5000)
	_, err := ex.Extract(context.Background(), md, "en")
	require.ErrorIs(t, err, ErrNoModel)
	m, ok := ex.Generate(context.Background(), md, "en")
	require.False(t, ok)
	require.Equal(t, "meeting-notes", m.Slug)
}

func TestGenerate_UsesModel(t *testing.T) {
	c := &fakeCompleter{replies: []any{goodReply}}
	m, ok := newTestExtractor(c, 1000, 5000).Generate(context.Background(), "# Meeting Notes\n\nBody.", "en")
	require.True(t, ok)
	require.Equal(t, "Notes on a desk", m.CoverAlt)
}

func TestSummarize(t *testing.T) {
	o := ParseOutline("# Guide\n\n## Setup\n\nThis tool helps teams. Random filler here.\n\n## Usage\n\nMore text.")
	s := Summarize(o, "en")
	require.Contains(t, s, "Title: Guide\n")
	require.Contains(t, s, "Outline:\n- Guide\n  - Setup\n  - Usage\n")
	require.Contains(t, s, "First paragraph: This tool helps teams. Random filler here.\n")
	require.Contains(t, s, "- This tool helps teams.\n")
	require.Contains(t, s, "Length: ")
}

func TestCoreSentences_FallsBackToLeads(t *testing.T) {
	o := ParseOutline("Plain opening sentence here. Another one follows.\n\nSecond paragraph starts now.")
	require.Equal(t, []string{"Plain opening sentence here.", "Second paragraph starts now."}, CoreSentences(o, "en", 5))
}

func TestParseOutline(t *testing.T) {
	o := ParseOutline("# Title\n\nPara one.\n\n## Sub\n\n```go\nx := 1\n```\n\nPara *two*.\n\n<div>raw</div>\n")
	require.Equal(t, "Title", o.Title)
	require.Equal(t, []Heading{{1, "Title"}, {2, "Sub"}}, o.Headings)
	require.Equal(t, []string{"Para one.", "Para two."}, o.Paragraphs)
	require.NotContains(t, o.Plain, "x := 1")
	require.Equal(t, 6, o.Words)
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords("transcription meeting transcription notes meeting transcription the and", "en", 3)
	require.Equal(t, []string{"transcription", "meeting", "notes"}, got)

	got = TopKeywords("議事録の作成。議事録を共有。", "ja", 2)
	require.Equal(t, []string{"議事録", "作成"}, got)
}
