package translate

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Substituter puts translated values back into serialized content. values
// maps each placeholder to text that is already escaped for the
// serialization, so it can be spliced in verbatim.
type Substituter interface {
	Substitute(serialized string, values map[string]string) string
}

// ReplaceAll substitutes every occurrence of every placeholder in one pass.
type ReplaceAll struct{}

func (ReplaceAll) Substitute(serialized string, values map[string]string) string {
	if len(values) == 0 {
		return serialized
	}
	pairs := make([]string, 0, 2*len(values))
	for token, v := range values {
		pairs = append(pairs, token, v)
	}
	return strings.NewReplacer(pairs...).Replace(serialized)
}

// marshal encodes v without HTML escaping so rich text keeps <, > and &
// as written.
func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// escape returns s as it appears inside a JSON string literal.
func escape(s string) string {
	out, err := marshal(s)
	if err != nil {
		return s
	}
	return out[1 : len(out)-1]
}
