package extract

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

const systemPrompt = `You write SEO metadata for blog articles. Respond with one JSON object and nothing else.

Fields:
- "seo_title": search result title, at most 60 characters, in the article language
- "seo_description": meta description, 120 to 155 characters, in the article language
- "heading_h1": the article's main heading
- "slug": URL slug in English, lowercase ASCII letters, digits and hyphens only
- "reading_time": estimated reading time in whole minutes, 1 to 12
- "language": the language code given below, unchanged
- "cover_alt": alt text for the cover image, in the article language

Rules:
- Never invent facts that are not in the article
- Keep product names as written
- Do not wrap the JSON in code fences`

// schema is the shape the model must return. Length and range limits are
// stated in the prompt and enforced by Validate rather than rejected here.
func schema(lang string) *jsonschema.Schema {
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
	langs := make([]any, 0, len(Languages))
	for _, l := range Languages {
		langs = append(langs, l)
	}
	if SupportedLanguage(lang) {
		langs = []any{lang}
	}
	fields := []string{"seo_title", "seo_description", "heading_h1", "slug", "reading_time", "language", "cover_alt"}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"seo_title":       str(),
			"seo_description": str(),
			"heading_h1":      str(),
			"slug":            {Type: "string", Pattern: `^[a-z0-9-]+$`},
			"reading_time":    {Type: "integer"},
			"language":        {Type: "string", Enum: langs},
			"cover_alt":       str(),
		},
		Required: fields,
	}
}

// buildPrompt wraps body, which is either the article or its digest.
func buildPrompt(lang, body string, summarized bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", lang)
	if summarized {
		sb.WriteString("The article is long. Below is a structural digest of it, not the full text.\n")
	}
	sb.WriteString("---\n")
	sb.WriteString(body)
	return sb.String()
}
