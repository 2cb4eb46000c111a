package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/config"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/translate"
)

const maxLanguages = 20

type translateRequest struct {
	Content   map[string]any      `json:"content"`
	Schema    translate.Schema    `json:"schema"`
	Templates translate.Templates `json:"templates"`
	Languages []string            `json:"languages"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeOptional(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == nil {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}
	if len(req.Languages) == 0 {
		jsonError(w, "languages is required", http.StatusBadRequest)
		return
	}
	if len(req.Languages) > maxLanguages {
		jsonError(w, "too many languages", http.StatusBadRequest)
		return
	}

	schema, templates := s.deps.Schema, s.deps.Templates
	if req.Schema != nil {
		if err := config.CheckSchema(req.Schema); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		schema = req.Schema
	}
	if req.Templates != nil {
		for _, tpl := range req.Templates {
			if err := config.CheckSchema(tpl); err != nil {
				jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		templates = req.Templates
	}

	out, err := s.deps.Translator.Translate(r.Context(), req.Content, schema, templates, req.Languages)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			jsonError(w, "translation cancelled", http.StatusGatewayTimeout)
			return
		}
		s.log.Error("translate failed", "error", err)
		jsonError(w, "translation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"translations": out})
}
