package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.runner.Jobs().Get(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	body := map[string]any{"job": job.Snapshot()}
	if res := job.Result(); res != nil {
		body["result"] = res
	}
	writeJSON(w, http.StatusOK, body)
}

// handleBatch runs the configured input directory through the pipeline and
// returns the run report. It blocks until the batch finishes and answers 409
// while another batch is running.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	rep, err := s.runner.Run(r.Context())
	if errors.Is(err, pipeline.ErrBatchRunning) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		if rep == nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.log.Warn("batch interrupted", "error", err)
	}
	writeJSON(w, http.StatusOK, rep)
}
