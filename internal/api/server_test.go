package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/parser/pdftest"
	"github.com/dgallion1/docoutline/internal/pipeline"
)

func newTestServer(t *testing.T, apiKey string) (*Server, config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		InputDir:       filepath.Join(root, "in"),
		OutputDir:      filepath.Join(root, "out"),
		MaxPages:       50,
		DocTimeout:     10 * time.Second,
		APIKey:         apiKey,
		MaxUploadBytes: 1 << 20,
		Heuristics:     config.DefaultHeuristics(),
	}
	os.MkdirAll(cfg.InputDir, 0o755)
	opts, err := pipeline.ExtractOptions(cfg, nil)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	runner := pipeline.NewRunner(cfg, opts, nil, nil)
	return NewServer(runner, discardLogger(), cfg), cfg
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, s *Server, path, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, data, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

type outlineResponse struct {
	Job    pipeline.JobSnapshot `json:"job"`
	Result *doctree.Result      `json:"result"`
}

func samplePDF() []byte {
	return pdftest.Build(pdftest.Doc{
		Title: "Field Manual",
		Pages: [][]pdftest.Text{{
			{X: 72, Y: 700, Size: 24, Bold: true, S: "Field Manual"},
			{X: 72, Y: 600, Size: 11, S: "For use by survey teams only."},
		}},
	})
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestAuth_RequiredWhenKeySet(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestOutline_PDF(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := post(t, s, "/api/outline", "manual.pdf", samplePDF(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp outlineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Job.Status != pipeline.StatusCompleted {
		t.Errorf("expected completed, got %q", resp.Job.Status)
	}
	if resp.Result == nil || resp.Result.Title == "" {
		t.Fatalf("expected a result with a title, got %+v", resp.Result)
	}
	if err := resp.Result.Validate(); err != nil {
		t.Errorf("result should validate: %v", err)
	}

	// The job stays queryable.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+resp.Job.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected job lookup to succeed, got %d", rec.Code)
	}
}

func TestOutline_Markdown(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := post(t, s, "/api/outline", "notes.md", []byte("# Notes\n\n## One\n\n### Two\n"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp outlineResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Result == nil || len(resp.Result.Outline) != 3 {
		t.Fatalf("expected 3 entries, got %+v", resp.Result)
	}
	if resp.Result.Outline[2].Level != doctree.H3 {
		t.Errorf("expected H3, got %v", resp.Result.Outline[2].Level)
	}
}

func TestOutline_PageCeiling(t *testing.T) {
	s, _ := newTestServer(t, "")
	big := pdftest.Build(pdftest.Doc{Pages: pdftest.Pages(51)})
	rec := post(t, s, "/api/outline", "big.pdf", big, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp outlineResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Job.Status != pipeline.StatusSkippedLimit {
		t.Errorf("expected skipped_limit, got %q", resp.Job.Status)
	}
	if resp.Result != nil {
		t.Error("skipped document should have no result")
	}
}

func TestOutline_BadInput(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := post(t, s, "/api/outline", "data.csv", []byte("a,b"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}

	rec = post(t, s, "/api/outline", "doc.pdf", samplePDF(), map[string]string{"archetype": "brochure"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown archetype, got %d", rec.Code)
	}

	rec = post(t, s, "/api/outline", "huge.pdf", bytes.Repeat([]byte("x"), 2<<20), nil)
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("expected size rejection, got %d", rec.Code)
	}
}

func TestArchetype(t *testing.T) {
	s, _ := newTestServer(t, "")
	doc := pdftest.Build(pdftest.Doc{Pages: [][]pdftest.Text{{
		{X: 72, Y: 700, Size: 20, S: "You are invited"},
		{X: 72, Y: 650, Size: 12, S: "Please RSVP by Friday"},
	}}})
	rec := post(t, s, "/api/archetype", "party.pdf", doc, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["archetype"] != "invitation" {
		t.Errorf("expected invitation, got %q", resp["archetype"])
	}
}

func TestBatchAndStats(t *testing.T) {
	s, cfg := newTestServer(t, "")
	os.WriteFile(filepath.Join(cfg.InputDir, "manual.pdf"), samplePDF(), 0o644)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/batch", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rep pipeline.Report
	json.Unmarshal(rec.Body.Bytes(), &rep)
	if rep.Completed != 1 {
		t.Errorf("expected one completed document, got %+v", rep)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var stats struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
	}
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.Stats.Count != 1 {
		t.Errorf("expected one latency sample, got %+v", stats.Stats)
	}
}

func TestBatch_OverlappingRequests(t *testing.T) {
	s, cfg := newTestServer(t, "")
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"} {
		os.WriteFile(filepath.Join(cfg.InputDir, name), samplePDF(), 0o644)
	}

	codes := make([]int, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/batch", nil))
			codes[i] = rec.Code
		}()
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
		default:
			t.Errorf("expected 200 or 409, got %d", code)
		}
	}
	if ok == 0 {
		t.Error("expected at least one batch to run")
	}
}

func TestUpload_RemovesMultipartTempFiles(t *testing.T) {
	s, _ := newTestServer(t, "")
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	// Larger than the in-memory budget so the part spills to disk, then
	// rejected for its extension.
	data := bytes.Repeat([]byte("x"), 1<<20+512<<10)
	rec := post(t, s, "/api/outline", "notes.txt", data, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected multipart temp files removed, found %d", len(entries))
	}
}

func TestJob_NotFound(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd.pdf": "passwd.pdf",
		"dir/report.pdf":       "report.pdf",
		"":                     "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
