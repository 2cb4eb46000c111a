package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/cms"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/extract"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/richtext"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/translate"
)

// Converter turns a source document into rich text.
type Converter interface {
	Convert(ctx context.Context, doc *gdoc.Document) *richtext.Doc
}

// MetadataGenerator always returns a usable record; ok is false when the
// heuristic fallback produced it.
type MetadataGenerator interface {
	Generate(ctx context.Context, markdown, lang string) (m extract.Metadata, ok bool)
}

type ContentTranslator interface {
	Translate(ctx context.Context, content map[string]any, schema translate.Schema, templates translate.Templates, langs []string) (map[string]map[string]any, error)
}

// StoryStore is the subset of the CMS API the worker writes through.
type StoryStore interface {
	GetByPath(ctx context.Context, fullSlug string) (*cms.Story, error)
	Create(ctx context.Context, s cms.Story) (*cms.Story, error)
	Update(ctx context.Context, id int64, s cms.Story) (*cms.Story, error)
}

// WorkerDeps are the collaborators a worker runs a job through.
type WorkerDeps struct {
	Source     gdoc.Source
	Converter  Converter
	Metadata   MetadataGenerator
	Translator ContentTranslator
	Stories    StoryStore

	// Component is the content type of published stories.
	Component string
	Schema    translate.Schema
	Templates translate.Templates
}

// Worker processes a single publish job.
type Worker struct {
	deps WorkerDeps
	log  *slog.Logger
}

func NewWorker(deps WorkerDeps, log *slog.Logger) *Worker {
	if deps.Component == "" {
		deps.Component = "blog_post"
	}
	return &Worker{deps: deps, log: log}
}

// Process fetches, converts, describes, and publishes the job's document,
// then publishes one translated story per target language. A failed
// language downgrades the job to partial; anything before that fails it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching document")
	tree, err := w.deps.Source.FetchTree(ctx, job.DocID)
	if err != nil {
		w.fail(log, job, "fetching", fmt.Errorf("fetch: %w", err))
		return
	}
	markdown, err := w.deps.Source.FetchRenderedText(ctx, job.DocID)
	if err != nil {
		log.Warn("rendered text unavailable, rendering from tree", "error", err)
		markdown = gdoc.Markdown(tree)
	}
	job.SetContentHash(ContentHashHex([]byte(markdown)))

	// Phase 2: Convert
	job.SetStatus(StatusConverting, "converting to rich text")
	body := w.deps.Converter.Convert(ctx, tree)

	// Phase 3: Metadata
	job.SetStatus(StatusExtracting, "extracting metadata")
	meta, aiUsed := w.deps.Metadata.Generate(ctx, markdown, "")
	if !aiUsed {
		job.AddError("metadata: ai extraction failed, heuristic metadata used")
	}
	job.SetMetadata(meta.HeadingH1, meta.Slug, aiUsed)
	log.Info("metadata ready", "slug", meta.Slug, "language", meta.Language, "ai", aiUsed)

	// Phase 4: Publish source language
	job.SetStatus(StatusPublishing, "publishing "+meta.Language)
	content := StoryContent(w.deps.Component, meta, body)
	ref, err := w.publish(ctx, job.Folder, meta.Slug, meta.HeadingH1, content)
	if err != nil {
		w.fail(log, job, "publishing", fmt.Errorf("publish %s: %w", meta.Language, err))
		return
	}
	ref.Language = meta.Language
	job.AddStory(ref, false)

	langs := targetLanguages(job.Languages, meta.Language)
	if len(langs) == 0 {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 5: Translate
	job.SetStatus(StatusTranslating, "translating")
	translated, err := w.deps.Translator.Translate(ctx, content, w.deps.Schema, w.deps.Templates, langs)
	if err != nil {
		log.Error("translation failed", "error", err)
		job.AddError(fmt.Sprintf("translate: %s", err))
		job.SetStatus(StatusPartial, "done")
		return
	}

	// Phase 6: Publish translations
	hadErrors := false
	for _, lang := range langs {
		job.SetStatus(StatusPublishing, "publishing "+lang)
		c := translated[lang]
		if c == nil {
			job.AddError(fmt.Sprintf("translate %s: no content", lang))
			hadErrors = true
			continue
		}
		c["language"] = lang
		title, _ := c["title"].(string)
		if title == "" {
			title = meta.HeadingH1
		}
		ref, err := w.publish(ctx, path.Join(lang, job.Folder), meta.Slug, title, c)
		if err != nil {
			log.Warn("translated publish failed", "language", lang, "error", err)
			job.AddError(fmt.Sprintf("publish %s: %s", lang, err))
			hadErrors = true
			continue
		}
		ref.Language = lang
		job.AddStory(ref, true)
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

// publish creates or updates the story at folder/slug.
func (w *Worker) publish(ctx context.Context, folder, slug, name string, content map[string]any) (StoryRef, error) {
	fullSlug := path.Join(folder, slug)
	existing, err := w.deps.Stories.GetByPath(ctx, fullSlug)
	if err != nil {
		return StoryRef{}, err
	}
	parentID, err := w.ensureFolder(ctx, folder)
	if err != nil {
		return StoryRef{}, fmt.Errorf("folder %s: %w", folder, err)
	}

	story := cms.Story{Name: name, Slug: slug, ParentID: parentID, Content: content}
	var saved *cms.Story
	if existing != nil {
		saved, err = w.deps.Stories.Update(ctx, existing.ID, story)
	} else {
		saved, err = w.deps.Stories.Create(ctx, story)
	}
	if err != nil {
		return StoryRef{}, err
	}
	return StoryRef{FullSlug: fullSlug, ID: saved.ID, Created: existing == nil}, nil
}

// ensureFolder returns the id of the folder story at p, creating it and its
// parents when missing. The root has id 0.
func (w *Worker) ensureFolder(ctx context.Context, p string) (int64, error) {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return 0, nil
	}
	existing, err := w.deps.Stories.GetByPath(ctx, p)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if !existing.IsFolder {
			return 0, errors.New("path is a story, not a folder")
		}
		return existing.ID, nil
	}
	parent, err := w.ensureFolder(ctx, path.Dir(p))
	if err != nil {
		return 0, err
	}
	name := path.Base(p)
	created, err := w.deps.Stories.Create(ctx, cms.Story{Name: name, Slug: name, ParentID: parent, IsFolder: true})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// StoryContent is the content of a published story.
func StoryContent(component string, m extract.Metadata, body *richtext.Doc) map[string]any {
	return map[string]any{
		"component":    component,
		"title":        m.HeadingH1,
		"body":         richtext.Encode(body),
		"reading_time": m.ReadingTime,
		"language":     m.Language,
		"seo": map[string]any{
			"title":       m.SEOTitle,
			"description": m.SEODescription,
			"h1":          m.HeadingH1,
			"cover_alt":   m.CoverAlt,
		},
	}
}

// targetLanguages drops duplicates and the source language.
func targetLanguages(langs []string, source string) []string {
	var out []string
	seen := map[string]bool{source: true}
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
