package api

import (
	"net/http"
)

func (s *Server) handleClassifierStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "classifier stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend":     s.stats.Name(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.stats.Stats(),
	})
}
