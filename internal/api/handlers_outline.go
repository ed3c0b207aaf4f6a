package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

// upload reads the multipart "file" field, enforcing the size limit and the
// accepted extensions. It writes the error response itself and returns ok=false.
// Multipart temp files are gone by the time it returns.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (filename string, data []byte, ok bool) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(min(32<<20, s.cfg.MaxUploadBytes)); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename, true) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

// handleOutline extracts the outline of one uploaded document. The optional
// "archetype" form field forces a strategy for PDFs.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.upload(w, r)
	if !ok {
		return
	}

	var kind archetype.Archetype
	if v := r.FormValue("archetype"); v != "" {
		k, ok := archetype.Parse(v)
		if !ok {
			jsonError(w, fmt.Sprintf("unknown archetype: %s", v), http.StatusBadRequest)
			return
		}
		kind = k
	}

	job := s.runner.ExtractUpload(r.Context(), filename, data, kind)
	snap := job.Snapshot()

	code := http.StatusOK
	if snap.Status != pipeline.StatusCompleted {
		code = http.StatusUnprocessableEntity
	}

	body := map[string]any{"job": snap}
	if res := job.Result(); res != nil {
		body["result"] = res
	}
	writeJSON(w, code, body)
}

func (s *Server) handleArchetype(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.upload(w, r)
	if !ok {
		return
	}

	if !parser.IsPDF(filename) {
		jsonError(w, "archetype detection needs a pdf", http.StatusBadRequest)
		return
	}
	kind, err := s.runner.Detect(r.Context(), data)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, pipeline.ErrTimeBudget) {
			code = http.StatusRequestTimeout
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filename": filename, "archetype": string(kind)})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pdf":                  []string{".pdf"},
		"native":               slices.Sorted(maps.Keys(parser.NativeExtensions)),
		"batch_native_enabled": s.cfg.NativeFormats,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
