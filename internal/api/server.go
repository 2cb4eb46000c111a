package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/ai"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/pipeline"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/translate"
)

// Deps are the components the handlers call. Orchestrator is nil when
// publishing is not configured; Stats is nil when no model is configured.
type Deps struct {
	Source       gdoc.Source
	Converter    pipeline.Converter
	Metadata     pipeline.MetadataGenerator
	Translator   pipeline.ContentTranslator
	Schema       translate.Schema
	Templates    translate.Templates
	Orchestrator *pipeline.Orchestrator
	Stats        *ai.Stats
	Model        string
}

// Server is the HTTP API of the publisher.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if deps.Schema == nil {
		deps.Schema = translate.DefaultSchema()
	}
	if deps.Templates == nil {
		deps.Templates = translate.DefaultTemplates()
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PublisherAPIKey, s.log))

		r.Post("/api/documents/{docID}/convert", s.handleConvert)
		r.Post("/api/documents/{docID}/metadata", s.handleMetadata)
		r.Post("/api/translate", s.handleTranslate)

		r.Post("/api/publish", s.handlePublish)
		r.Get("/api/publish/{jobID}/status", s.handlePublishStatus)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
