package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanchenhao57/gdocs-blog-publisher-sub001/internal/pipeline"
)

type publishRequest struct {
	DocID     string   `json:"doc_id"`
	Languages []string `json:"languages"`
	Folder    string   `json:"folder"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	var req publishRequest
	if err := decodeOptional(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !docIDRe.MatchString(req.DocID) {
		jsonError(w, "doc_id is required", http.StatusBadRequest)
		return
	}
	languages := req.Languages
	if languages == nil {
		languages = s.cfg.DefaultLanguages
	}
	if len(languages) > maxLanguages {
		jsonError(w, "too many languages", http.StatusBadRequest)
		return
	}
	folder := strings.Trim(req.Folder, "/")
	if folder == "" {
		folder = s.cfg.CMSFolder
	}
	if strings.Contains(folder, "..") {
		jsonError(w, "invalid folder", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req.DocID, folder, languages)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/publish/%s/status", job.ID),
	})
}

func (s *Server) handlePublishStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
