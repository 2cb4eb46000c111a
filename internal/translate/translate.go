// Package translate produces per-language copies of story content. Each
// translatable leaf is swapped for a placeholder, translated once into all
// target languages, and substituted back into the serialized content.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// NotTranslated stands in for a leaf with neither a translation nor a
// source value.
const NotTranslated = "[not translated]"

const DefaultConcurrency = 8

// LeafTranslator translates one string into every language in one call. The
// result may omit languages; those fall back to the source.
type LeafTranslator interface {
	Translate(ctx context.Context, text string, langs []string) (map[string]string, error)
}

type Translator struct {
	leaf        LeafTranslator
	sub         Substituter
	concurrency int
	newToken    func() string
	log         *slog.Logger
}

type Option func(*Translator)

func WithConcurrency(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

func WithSubstituter(s Substituter) Option {
	return func(t *Translator) { t.sub = s }
}

// WithTokenFunc replaces placeholder generation. Tokens must be unique and
// must not need escaping in JSON.
func WithTokenFunc(f func() string) Option {
	return func(t *Translator) { t.newToken = f }
}

func WithLogger(log *slog.Logger) Option {
	return func(t *Translator) { t.log = log }
}

func New(leaf LeafTranslator, opts ...Option) *Translator {
	t := &Translator{
		leaf:        leaf,
		sub:         ReplaceAll{},
		concurrency: DefaultConcurrency,
		newToken:    placeholder,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func placeholder() string {
	return "__TR_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "__"
}

// Translate returns one translated copy of content per language. A leaf
// whose translation fails keeps its source text in every copy. The only
// errors are a cancelled ctx and content that cannot be serialized.
func (t *Translator) Translate(ctx context.Context, content map[string]any, schema Schema, templates Templates, langs []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(langs))
	if len(langs) == 0 {
		return out, nil
	}
	if schema == nil {
		schema = DefaultSchema()
	}
	if templates == nil {
		templates = DefaultTemplates()
	}

	tree, err := clone(content)
	if err != nil {
		return nil, fmt.Errorf("clone content: %w", err)
	}
	s := &session{templates: templates, newToken: t.newToken}
	tree = s.walk(tree, schema)

	failed := t.run(ctx, s.leaves, langs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	serialized, err := marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("serialize content: %w", err)
	}
	for _, lang := range langs {
		values := make(map[string]string, len(s.leaves))
		for _, l := range s.leaves {
			values[l.token] = escape(l.value(lang))
		}
		var translated map[string]any
		if err := json.Unmarshal([]byte(t.sub.Substitute(serialized, values)), &translated); err != nil {
			return nil, fmt.Errorf("reassemble %s: %w", lang, err)
		}
		out[lang] = translated
	}

	t.log.Info("translation finished", "leaves", len(s.leaves), "failed", failed, "languages", langs)
	return out, nil
}

// run translates every leaf. Failures are logged and counted; they never
// cancel sibling calls.
func (t *Translator) run(ctx context.Context, leaves []*leaf, langs []string) int {
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for _, l := range leaves {
		g.Go(func() error {
			res, err := t.leaf.Translate(ctx, l.core, langs)
			if err != nil {
				failed.Add(1)
				t.log.Warn("leaf translation failed, keeping source", "text", preview(l.core), "error", err)
				return nil
			}
			l.results = res
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

type leaf struct {
	token  string
	source string
	// core is source without surrounding whitespace, which is restored
	// around the translation.
	core        string
	lead, trail string
	results     map[string]string
}

func (l *leaf) value(lang string) string {
	if tr := strings.TrimSpace(l.results[lang]); tr != "" {
		return l.lead + tr + l.trail
	}
	if l.source != "" {
		return l.source
	}
	return NotTranslated
}

type session struct {
	templates Templates
	newToken  func() string
	leaves    []*leaf
}

// walk replaces the translatable leaves of node, as described by schema,
// with placeholders and returns the updated node.
func (s *session) walk(node any, schema Schema) any {
	switch sc := schema.(type) {
	case string:
		switch {
		case sc == MarkerDoc:
			if m, ok := node.(map[string]any); ok {
				s.doc(m)
			}
		case sc == MarkerBloks:
			if items, ok := node.([]any); ok {
				for _, it := range items {
					s.blok(it)
				}
			}
		case isString(sc):
			if str, ok := node.(string); ok {
				return s.placeholder(str)
			}
		}
	case map[string]any:
		m, ok := node.(map[string]any)
		if !ok {
			return node
		}
		for k, sub := range sc {
			if v, ok := m[k]; ok {
				m[k] = s.walk(v, sub)
			}
		}
	case []any:
		items, ok := node.([]any)
		if !ok || len(sc) == 0 {
			return node
		}
		for i, it := range items {
			items[i] = s.walk(it, sc[0])
		}
	}
	return node
}

// doc walks a rich-text node. Text and image alt attributes are leaves;
// bloks follow their component template; everything else only recurses.
func (s *session) doc(n map[string]any) {
	switch n["type"] {
	case "text":
		if str, ok := n["text"].(string); ok {
			n["text"] = s.placeholder(str)
		}
	case "image":
		if attrs, ok := n["attrs"].(map[string]any); ok {
			if alt, ok := attrs["alt"].(string); ok {
				attrs["alt"] = s.placeholder(alt)
			}
		}
	case "blok":
		if attrs, ok := n["attrs"].(map[string]any); ok {
			if body, ok := attrs["body"].([]any); ok {
				for _, it := range body {
					s.blok(it)
				}
			}
		}
	}
	content, _ := n["content"].([]any)
	for _, c := range content {
		if child, ok := c.(map[string]any); ok {
			s.doc(child)
		}
	}
}

// blok walks one component against its template. Unknown components are
// left untranslated.
func (s *session) blok(item any) {
	m, ok := item.(map[string]any)
	if !ok {
		return
	}
	name, _ := m["component"].(string)
	tpl, ok := s.templates[name]
	if !ok {
		return
	}
	s.walk(m, tpl)
}

// placeholder registers str as a leaf. Blank strings stay as they are.
func (s *session) placeholder(str string) string {
	core := strings.TrimSpace(str)
	if core == "" {
		return str
	}
	l := &leaf{
		token:  s.newToken(),
		source: str,
		core:   core,
		lead:   str[:len(str)-len(strings.TrimLeftFunc(str, unicode.IsSpace))],
		trail:  str[len(strings.TrimRightFunc(str, unicode.IsSpace)):],
	}
	s.leaves = append(s.leaves, l)
	return l.token
}

// clone deep-copies content into plain JSON values.
func clone(content map[string]any) (any, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= 60 {
		return s
	}
	return string(r[:60]) + "..."
}
