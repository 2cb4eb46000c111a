package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"model": s.deps.Model,
		"stats": s.deps.Stats.Snapshot(),
	}
	if o := s.deps.Orchestrator; o != nil {
		resp["queue_depth"] = o.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
