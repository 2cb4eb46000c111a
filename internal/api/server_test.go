package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/convert"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/extract"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/pipeline"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/translate"
)

const testKey = "secret"

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSource struct {
	textErr error
}

func (f *fakeSource) FetchTree(_ context.Context, id string) (*gdoc.Document, error) {
	if id != "doc-1" {
		return nil, gdoc.ErrNotFound
	}
	return &gdoc.Document{
		ID:    id,
		Title: "Notes",
		Body: []gdoc.Block{
			&gdoc.Paragraph{
				Elements: []gdoc.Inline{&gdoc.TextRun{Text: "Meeting Notes\n"}},
				Style:    gdoc.ParagraphStyle{NamedStyleType: "HEADING_1"},
			},
			&gdoc.Paragraph{Elements: []gdoc.Inline{&gdoc.TextRun{Text: "Hello world.\n"}}},
		},
	}, nil
}

func (f *fakeSource) FetchRenderedText(ctx context.Context, id string) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	doc, err := f.FetchTree(ctx, id)
	if err != nil {
		return "", err
	}
	return gdoc.Markdown(doc), nil
}

type fallbackMetadata struct{ gotLang string }

func (f *fallbackMetadata) Generate(_ context.Context, markdown, lang string) (extract.Metadata, bool) {
	f.gotLang = lang
	return extract.Fallback(markdown, lang), false
}

type upperLeaf struct{}

func (upperLeaf) Translate(_ context.Context, text string, langs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, l := range langs {
		out[l] = strings.ToUpper(text)
	}
	return out, nil
}

func newTestServer(t *testing.T, src gdoc.Source, orch *pipeline.Orchestrator) (*httptest.Server, *fallbackMetadata) {
	t.Helper()
	meta := &fallbackMetadata{}
	s := NewServer(Deps{
		Source:       src,
		Converter:    convert.New(nil, convert.WithLogger(quietLog)),
		Metadata:     meta,
		Translator:   translate.New(upperLeaf{}, translate.WithLogger(quietLog)),
		Orchestrator: orch,
		Stats:        ai.NewStats(0),
		Model:        "test-model",
	}, quietLog, config.Config{PublisherAPIKey: testKey, CMSFolder: "blog", DefaultLanguages: []string{"ja"}})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts, meta
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/stats/llm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestConvert(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)

	code, out := call(t, ts, http.MethodPost, "/api/documents/doc-1/convert", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Notes", out["title"])
	body := out["body"].(map[string]any)
	require.Equal(t, "doc", body["type"])
	content := body["content"].([]any)
	require.Equal(t, "heading", content[0].(map[string]any)["type"])

	code, out = call(t, ts, http.MethodPost, "/api/documents/missing/convert", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "document not found", out["error"])

	code, _ = call(t, ts, http.MethodPost, "/api/documents/bad%20id/convert", "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestMetadata(t *testing.T) {
	ts, meta := newTestServer(t, &fakeSource{textErr: errors.New("export disabled")}, nil)

	code, out := call(t, ts, http.MethodPost, "/api/documents/doc-1/metadata", `{"language":"ja"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ja", meta.gotLang)
	require.Equal(t, false, out["ai"])
	m := out["metadata"].(map[string]any)
	require.Equal(t, "Meeting Notes", m["heading_h1"])
	require.Equal(t, "ja", m["language"])

	code, _ = call(t, ts, http.MethodPost, "/api/documents/doc-1/metadata", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "", meta.gotLang)
}

func TestTranslate(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)

	code, out := call(t, ts, http.MethodPost, "/api/translate",
		`{"content":{"title":"hi","count":3},"schema":{"title":"str"},"languages":["ja","zh"]}`)
	require.Equal(t, http.StatusOK, code)
	tr := out["translations"].(map[string]any)
	ja := tr["ja"].(map[string]any)
	require.Equal(t, "HI", ja["title"])
	require.Equal(t, float64(3), ja["count"])
	require.Contains(t, tr, "zh")

	tests := []struct {
		name string
		body string
	}{
		{"no content", `{"languages":["ja"]}`},
		{"no languages", `{"content":{"title":"hi"}}`},
		{"bad marker", `{"content":{"title":"hi"},"schema":{"title":"text"},"languages":["ja"]}`},
		{"bad template", `{"content":{"title":"hi"},"templates":{"x":{"a":["str","str"]}},"languages":["ja"]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := call(t, ts, http.MethodPost, "/api/translate", tt.body)
			require.Equal(t, http.StatusBadRequest, code)
			require.NotEmpty(t, out["error"])
		})
	}
}

func TestPublish(t *testing.T) {
	orch := pipeline.NewOrchestrator(pipeline.Options{WorkerCount: 1, MaxQueueSize: 1}, nil, quietLog)
	ts, _ := newTestServer(t, &fakeSource{}, orch)

	code, out := call(t, ts, http.MethodPost, "/api/publish", `{"doc_id":"doc-1"}`)
	require.Equal(t, http.StatusAccepted, code)
	jobID := out["job_id"].(string)
	require.Equal(t, "/api/publish/"+jobID+"/status", out["poll_url"])

	code, out = call(t, ts, http.MethodGet, "/api/publish/"+jobID+"/status", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "queued", out["status"])
	require.Equal(t, "blog", out["folder"])
	require.Equal(t, []any{"ja"}, out["languages"])

	code, _ = call(t, ts, http.MethodPost, "/api/publish", `{"doc_id":"doc-2"}`)
	require.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = call(t, ts, http.MethodPost, "/api/publish", `{}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, ts, http.MethodGet, "/api/publish/nope/status", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestPublishDisabled(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)
	code, out := call(t, ts, http.MethodPost, "/api/publish", `{"doc_id":"doc-1"}`)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "publishing is not configured", out["error"])
}

func TestLLMStats(t *testing.T) {
	ts, _ := newTestServer(t, &fakeSource{}, nil)
	code, out := call(t, ts, http.MethodGet, "/api/stats/llm", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "test-model", out["model"])
	require.Contains(t, out, "stats")
}
