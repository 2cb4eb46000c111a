package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
)

const systemPrompt = `You are a professional translator for a software company blog.
Translate the user's text into each requested language and respond with one JSON object keyed by language code.

Rules:
- Keep product names, URLs, code and placeholders like {name} unchanged
- Keep the tone and formatting of the source
- Translate the whole text; never summarize or add notes
- Do not wrap the JSON in code fences`

// AILeaf translates leaves with a structured completion call.
type AILeaf struct {
	ai          ai.Completer
	call        ai.CallOptions
	maxTokens   int
	temperature *float64
}

func NewAILeaf(c ai.Completer, call ai.CallOptions, maxTokens int, temperature *float64) *AILeaf {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AILeaf{ai: c, call: call, maxTokens: maxTokens, temperature: temperature}
}

func (a *AILeaf) Translate(ctx context.Context, text string, langs []string) (map[string]string, error) {
	req := ai.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf("Languages: %s\n---\n%s", strings.Join(langs, ", "), text),
		Schema:      languageSchema(langs),
		SchemaName:  "translations",
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}
	var out map[string]string
	if err := ai.CompleteJSON(ctx, a.ai, req, &out, a.call); err != nil {
		return nil, err
	}
	return out, nil
}

func languageSchema(langs []string) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(langs))
	for _, l := range langs {
		props[l] = &jsonschema.Schema{Type: "string"}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   append([]string(nil), langs...),
	}
}
