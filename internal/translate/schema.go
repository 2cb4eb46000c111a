package translate

import "strings"

// Schema markers. Any string starting with MarkerString is a plain
// translatable string.
const (
	MarkerString = "str"
	MarkerDoc    = "doc"
	// MarkerBloks marks an array of story components, each resolved against
	// the templates by its "component" field.
	MarkerBloks = "bloks"
)

// Schema mirrors the translatable shape of story content: a marker string,
// a map of field schemas, or a one-element array whose element describes
// every item. It is the shape yaml.v3 and encoding/json decode into.
type Schema = any

// Templates maps a component name to the schema of its fields.
type Templates map[string]Schema

// DefaultSchema describes the story content written by the publish pipeline.
func DefaultSchema() Schema {
	return map[string]any{
		"title": MarkerString,
		"body":  MarkerDoc,
		"seo": map[string]any{
			"title":       MarkerString,
			"description": MarkerString,
			"h1":          MarkerString,
			"cover_alt":   MarkerString,
		},
	}
}

// DefaultTemplates covers the components the converter embeds.
func DefaultTemplates() Templates {
	return Templates{
		"anchor":      map[string]any{"text": MarkerString},
		"custom_html": map[string]any{},
	}
}

func isString(marker string) bool {
	return strings.HasPrefix(marker, MarkerString)
}
