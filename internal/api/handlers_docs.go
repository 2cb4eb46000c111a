package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/gdoc"
	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/richtext"
)

var docIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

const maxBodyBytes = 8 << 20

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}
	tree, err := s.deps.Source.FetchTree(r.Context(), docID)
	if err != nil {
		s.fetchError(w, docID, err)
		return
	}
	doc := s.deps.Converter.Convert(r.Context(), tree)

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": docID,
		"title":  tree.Title,
		"body":   richtext.Encode(doc),
	})
}

type metadataRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	docID, ok := s.docID(w, r)
	if !ok {
		return
	}
	var req metadataRequest
	if err := decodeOptional(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	text, err := s.deps.Source.FetchRenderedText(ctx, docID)
	if err != nil {
		if errors.Is(err, gdoc.ErrNotFound) {
			s.fetchError(w, docID, err)
			return
		}
		s.log.Warn("rendered text unavailable, rendering from tree", "doc_id", docID, "error", err)
		tree, treeErr := s.deps.Source.FetchTree(ctx, docID)
		if treeErr != nil {
			s.fetchError(w, docID, treeErr)
			return
		}
		text = gdoc.Markdown(tree)
	}

	m, aiUsed := s.deps.Metadata.Generate(ctx, text, req.Language)
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":   docID,
		"metadata": m,
		"ai":       aiUsed,
	})
}

func (s *Server) docID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "docID")
	if !docIDRe.MatchString(id) {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (s *Server) fetchError(w http.ResponseWriter, docID string, err error) {
	if errors.Is(err, gdoc.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Error("fetch document failed", "doc_id", docID, "error", err)
	jsonError(w, "failed to fetch document", http.StatusBadGateway)
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
