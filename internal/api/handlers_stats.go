package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs_tracked": s.runner.Jobs().Len(),
		"stats":        s.runner.Stats().Snapshot(),
	})
}
