// Package ai wraps the text-completion backends used for metadata extraction
// and translation behind a single Completer interface.
package ai

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Completer produces one completion for one prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Model() string
}

type Request struct {
	System string
	Prompt string

	// Schema, when set, asks the backend for a JSON object conforming to it.
	// SchemaName identifies the schema to backends that require a name.
	Schema     *jsonschema.Schema
	SchemaName string

	MaxTokens   int
	Temperature *float64
}

type Completion struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 {
	return &v
}
