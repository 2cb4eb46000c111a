package extract

// Fallback derives a complete record from the document structure alone.
// It is deterministic and never fails. lang overrides detection when it is
// a supported code.
func Fallback(markdown, lang string) Metadata {
	o := ParseOutline(markdown)
	var m Metadata
	Validate(&m, Facts{Language: lang, Outline: o})
	return m
}
