package richtext

import "slices"

type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkStrike    MarkType = "strike"
	MarkLink      MarkType = "link"
	MarkTextStyle MarkType = "textStyle"
	MarkHighlight MarkType = "highlight"
)

// markOrder is the canonical order marks are emitted in.
var markOrder = []MarkType{
	MarkBold,
	MarkItalic,
	MarkUnderline,
	MarkStrike,
	MarkLink,
	MarkTextStyle,
	MarkHighlight,
}

// Mark is a formatting annotation on a text node. Href, Target and Rel apply
// to links; Color applies to textStyle and highlight.
type Mark struct {
	Type   MarkType
	Href   string
	Target string
	Rel    string
	Color  string
}

func (m Mark) encode() map[string]any {
	out := map[string]any{"type": string(m.Type)}
	switch m.Type {
	case MarkLink:
		attrs := map[string]any{
			"href":     m.Href,
			"target":   m.Target,
			"linktype": "url",
		}
		if m.Rel != "" {
			attrs["rel"] = m.Rel
		}
		out["attrs"] = attrs
	case MarkTextStyle, MarkHighlight:
		out["attrs"] = map[string]any{"color": m.Color}
	}
	return out
}

// Marks builds a mark set: at most one mark per type, in canonical order,
// independent of the order marks were added in. Later marks of a type
// replace earlier ones.
func Marks(marks ...Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	byType := make(map[MarkType]Mark, len(marks))
	for _, m := range marks {
		byType[m.Type] = m
	}
	out := make([]Mark, 0, len(byType))
	for _, t := range markOrder {
		if m, ok := byType[t]; ok {
			out = append(out, m)
		}
	}
	return out
}

// HasMark reports whether the set contains a mark of type t.
func HasMark(marks []Mark, t MarkType) bool {
	return slices.ContainsFunc(marks, func(m Mark) bool { return m.Type == t })
}
