package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TranslationSchema is the content schema and component templates used by
// the translator.
type TranslationSchema struct {
	Content   any            `yaml:"content"`
	Templates map[string]any `yaml:"templates"`
}

// LoadTranslationSchema reads a YAML schema file. An empty path returns nil.
func LoadTranslationSchema(path string) (*TranslationSchema, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translation schema: %w", err)
	}
	return ParseTranslationSchema(raw)
}

func ParseTranslationSchema(raw []byte) (*TranslationSchema, error) {
	var ts TranslationSchema
	if err := yaml.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("parse translation schema: %w", err)
	}
	if ts.Content == nil {
		return nil, fmt.Errorf("translation schema: content is required")
	}
	if err := checkSchema("content", ts.Content); err != nil {
		return nil, err
	}
	for name, tpl := range ts.Templates {
		if tpl == nil {
			ts.Templates[name] = map[string]any{}
			continue
		}
		if err := checkSchema("templates."+name, tpl); err != nil {
			return nil, err
		}
	}
	return &ts, nil
}

// CheckSchema validates a schema supplied outside the schema file, such as
// in an API request.
func CheckSchema(s any) error {
	return checkSchema("content", s)
}

// checkSchema rejects unknown markers and arrays that do not have exactly
// one element template.
func checkSchema(path string, s any) error {
	switch v := s.(type) {
	case string:
		if strings.HasPrefix(v, "str") || v == "doc" || v == "bloks" {
			return nil
		}
		return fmt.Errorf("translation schema %s: unknown marker %q", path, v)
	case map[string]any:
		for k, sub := range v {
			if err := checkSchema(path+"."+k, sub); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if len(v) != 1 {
			return fmt.Errorf("translation schema %s: arrays take exactly one element template, got %d", path, len(v))
		}
		return checkSchema(path+"[]", v[0])
	default:
		return fmt.Errorf("translation schema %s: unexpected %T", path, s)
	}
}
