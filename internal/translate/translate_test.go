package translate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
)

type fakeLeaf struct {
	mu       sync.Mutex
	fail     map[string]bool
	override map[string]map[string]string
	seen     []string

	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeLeaf) Translate(ctx context.Context, text string, langs []string) (map[string]string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.seen = append(f.seen, text)
	f.mu.Unlock()

	if f.fail[text] {
		return nil, errors.New("upstream unavailable")
	}
	if o, ok := f.override[text]; ok {
		return o, nil
	}
	out := make(map[string]string, len(langs))
	for _, l := range langs {
		out[l] = l + ":" + text
	}
	return out, nil
}

func sampleContent() map[string]any {
	return map[string]any{
		"component": "blog_post",
		"title":     "Hello",
		"slug":      "hello",
		"body": map[string]any{
			"type": "doc",
			"content": []any{
				map[string]any{
					"type": "paragraph",
					"content": []any{
						map[string]any{"type": "text", "text": "World", "marks": []any{map[string]any{"type": "bold"}}},
					},
				},
				map[string]any{
					"type":  "image",
					"attrs": map[string]any{"src": "https://cdn/x.png", "alt": "A cat", "title": "Cat"},
				},
			},
		},
		"seo": map[string]any{"title": "Hello SEO", "description": "", "h1": "Hello"},
	}
}

func paragraphText(t *testing.T, content map[string]any) string {
	t.Helper()
	body := content["body"].(map[string]any)
	p := body["content"].([]any)[0].(map[string]any)
	return p["content"].([]any)[0].(map[string]any)["text"].(string)
}

func imageAlt(t *testing.T, content map[string]any) string {
	t.Helper()
	body := content["body"].(map[string]any)
	img := body["content"].([]any)[1].(map[string]any)
	return img["attrs"].(map[string]any)["alt"].(string)
}

func requireNoPlaceholders(t *testing.T, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "__TR_")
}

func TestTranslate_RoundTrip(t *testing.T) {
	leaf := &fakeLeaf{}
	out, err := New(leaf).Translate(context.Background(), sampleContent(), nil, nil, []string{"ja", "zh"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, lang := range []string{"ja", "zh"} {
		c := out[lang]
		require.Equal(t, lang+":Hello", c["title"])
		require.Equal(t, "hello", c["slug"])
		require.Equal(t, "blog_post", c["component"])
		require.Equal(t, lang+":World", paragraphText(t, c))
		require.Equal(t, lang+":A cat", imageAlt(t, c))
		seo := c["seo"].(map[string]any)
		require.Equal(t, lang+":Hello SEO", seo["title"])
		require.Equal(t, "", seo["description"])
		requireNoPlaceholders(t, c)
	}
	// one call per leaf, all languages at once
	require.ElementsMatch(t, []string{"Hello", "World", "A cat", "Hello SEO", "Hello"}, leaf.seen)
}

func TestTranslate_PartialFailureKeepsSource(t *testing.T) {
	leaf := &fakeLeaf{fail: map[string]bool{"World": true}}
	out, err := New(leaf).Translate(context.Background(), sampleContent(), nil, nil, []string{"ja", "zh"})
	require.NoError(t, err)
	for _, lang := range []string{"ja", "zh"} {
		require.Equal(t, "World", paragraphText(t, out[lang]))
		require.Equal(t, lang+":Hello", out[lang]["title"])
		requireNoPlaceholders(t, out[lang])
	}
}

func TestTranslate_MissingLanguageFallsBack(t *testing.T) {
	leaf := &fakeLeaf{override: map[string]map[string]string{"Hello": {"ja": "こんにちは"}}}
	content := map[string]any{"title": "Hello"}
	out, err := New(leaf).Translate(context.Background(), content, map[string]any{"title": "str"}, nil, []string{"ja", "zh"})
	require.NoError(t, err)
	require.Equal(t, "こんにちは", out["ja"]["title"])
	require.Equal(t, "Hello", out["zh"]["title"])
}

func TestTranslate_EscapesValues(t *testing.T) {
	tricky := "He said \"hi\" \\ <b>bold</b> & more\nnext line"
	leaf := &fakeLeaf{override: map[string]map[string]string{"Hello": {"ja": tricky}}}
	out, err := New(leaf).Translate(context.Background(), map[string]any{"title": "Hello"}, map[string]any{"title": "str"}, nil, []string{"ja"})
	require.NoError(t, err)
	require.Equal(t, tricky, out["ja"]["title"])
}

func TestTranslate_PreservesWhitespace(t *testing.T) {
	leaf := &fakeLeaf{}
	content := map[string]any{"title": "  Hello \n", "blank": "   "}
	schema := map[string]any{"title": "str", "blank": "str"}
	out, err := New(leaf).Translate(context.Background(), content, schema, nil, []string{"ja"})
	require.NoError(t, err)
	require.Equal(t, "  ja:Hello \n", out["ja"]["title"])
	require.Equal(t, "   ", out["ja"]["blank"])
	require.Equal(t, []string{"Hello"}, leaf.seen)
}

func TestTranslate_Arrays(t *testing.T) {
	content := map[string]any{
		"faq": []any{
			map[string]any{"question": "Q1", "answer": map[string]any{"type": "doc", "content": []any{
				map[string]any{"type": "paragraph", "content": []any{map[string]any{"type": "text", "text": "A1"}}},
			}}},
			map[string]any{"question": "Q2", "id": "keep"},
		},
	}
	schema := map[string]any{"faq": []any{map[string]any{"question": "str", "answer": "doc"}}}

	out, err := New(&fakeLeaf{}).Translate(context.Background(), content, schema, nil, []string{"de"})
	require.NoError(t, err)
	faq := out["de"]["faq"].([]any)
	first := faq[0].(map[string]any)
	require.Equal(t, "de:Q1", first["question"])
	answer := first["answer"].(map[string]any)["content"].([]any)[0].(map[string]any)
	require.Equal(t, "de:A1", answer["content"].([]any)[0].(map[string]any)["text"])
	second := faq[1].(map[string]any)
	require.Equal(t, "de:Q2", second["question"])
	require.Equal(t, "keep", second["id"])
}

func TestTranslate_Bloks(t *testing.T) {
	content := map[string]any{
		"body": map[string]any{"type": "doc", "content": []any{
			map[string]any{"type": "blok", "attrs": map[string]any{"id": "1", "body": []any{
				map[string]any{"_uid": "1", "component": "anchor", "text": "Details"},
			}}},
			map[string]any{"type": "blok", "attrs": map[string]any{"id": "2", "body": []any{
				map[string]any{"_uid": "2", "component": "custom_html", "html": "<table><tr><td>x</td></tr></table>"},
			}}},
		}},
		"blocks": []any{
			map[string]any{"component": "anchor", "text": "Top"},
			map[string]any{"component": "unknown", "text": "Left alone"},
		},
	}
	schema := map[string]any{"body": "doc", "blocks": "bloks"}

	out, err := New(&fakeLeaf{}).Translate(context.Background(), content, schema, nil, []string{"fr"})
	require.NoError(t, err)
	fr := out["fr"]

	nodes := fr["body"].(map[string]any)["content"].([]any)
	anchor := nodes[0].(map[string]any)["attrs"].(map[string]any)["body"].([]any)[0].(map[string]any)
	require.Equal(t, "fr:Details", anchor["text"])
	table := nodes[1].(map[string]any)["attrs"].(map[string]any)["body"].([]any)[0].(map[string]any)
	require.Equal(t, "<table><tr><td>x</td></tr></table>", table["html"])

	blocks := fr["blocks"].([]any)
	require.Equal(t, "fr:Top", blocks[0].(map[string]any)["text"])
	require.Equal(t, "Left alone", blocks[1].(map[string]any)["text"])
}

func TestTranslate_DoesNotMutateSource(t *testing.T) {
	content := sampleContent()
	_, err := New(&fakeLeaf{}).Translate(context.Background(), content, nil, nil, []string{"ja"})
	require.NoError(t, err)
	require.Equal(t, sampleContent(), content)
}

func TestTranslate_NoLanguages(t *testing.T) {
	leaf := &fakeLeaf{}
	out, err := New(leaf).Translate(context.Background(), sampleContent(), nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, leaf.seen)
}

func TestTranslate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&fakeLeaf{}).Translate(ctx, sampleContent(), nil, nil, []string{"ja"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTranslate_ConcurrencyLimit(t *testing.T) {
	leaf := &fakeLeaf{delay: 10 * time.Millisecond}
	content := map[string]any{"items": []any{"a", "b", "c", "d", "e", "f"}}
	_, err := New(leaf, WithConcurrency(2)).Translate(context.Background(), content, map[string]any{"items": []any{"str"}}, nil, []string{"ja"})
	require.NoError(t, err)
	require.Len(t, leaf.seen, 6)
	require.LessOrEqual(t, leaf.peak.Load(), int32(2))
}

func TestTranslate_CustomTokenAndSubstituter(t *testing.T) {
	n := 0
	tokens := func() string { n++; return "@@" + strings.Repeat("x", n) + "@@" }
	sub := &recordingSub{}
	out, err := New(&fakeLeaf{}, WithTokenFunc(tokens), WithSubstituter(sub)).
		Translate(context.Background(), map[string]any{"title": "Hi"}, map[string]any{"title": "str"}, nil, []string{"ko"})
	require.NoError(t, err)
	require.Equal(t, "ko:Hi", out["ko"]["title"])
	require.Equal(t, `{"title":"@@x@@"}`, sub.serialized)
}

type recordingSub struct {
	serialized string
}

func (r *recordingSub) Substitute(serialized string, values map[string]string) string {
	r.serialized = serialized
	return ReplaceAll{}.Substitute(serialized, values)
}

func TestReplaceAll(t *testing.T) {
	got := ReplaceAll{}.Substitute(`["T1","T2","T1"]`, map[string]string{"T1": "one", "T2": "two"})
	require.Equal(t, `["one","two","one"]`, got)
	require.Equal(t, "same", ReplaceAll{}.Substitute("same", nil))
}

type scriptedCompleter struct {
	replies []string
	calls   int
	last    ai.Request
}

func (s *scriptedCompleter) Model() string { return "fake" }

func (s *scriptedCompleter) Complete(_ context.Context, req ai.Request) (*ai.Completion, error) {
	s.last = req
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	return &ai.Completion{Text: s.replies[i]}, nil
}

func TestAILeaf(t *testing.T) {
	noWait := ai.CallOptions{Attempts: 2, Backoff: func(int) time.Duration { return 0 }}

	t.Run("one call for all languages", func(t *testing.T) {
		c := &scriptedCompleter{replies: []string{"```json\n{\"ja\":\"こんにちは\",\"zh\":\"你好\"}\n```"}}
		got, err := NewAILeaf(c, noWait, 0, nil).Translate(context.Background(), "Hello", []string{"ja", "zh"})
		require.NoError(t, err)
		require.Equal(t, map[string]string{"ja": "こんにちは", "zh": "你好"}, got)
		require.Equal(t, 1, c.calls)
		require.Contains(t, c.last.Prompt, "Languages: ja, zh")
		require.Equal(t, []string{"ja", "zh"}, c.last.Schema.Required)
	})

	t.Run("missing language is retried then fails", func(t *testing.T) {
		c := &scriptedCompleter{replies: []string{`{"ja":"こんにちは"}`}}
		_, err := NewAILeaf(c, noWait, 0, nil).Translate(context.Background(), "Hello", []string{"ja", "zh"})
		require.ErrorIs(t, err, ai.ErrMalformedOutput)
		require.Equal(t, 2, c.calls)
	})
}
