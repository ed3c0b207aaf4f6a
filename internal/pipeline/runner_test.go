package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/ledger"
	"github.com/dgallion1/docoutline/internal/parser/pdftest"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		InputDir:   filepath.Join(root, "in"),
		OutputDir:  filepath.Join(root, "out"),
		MaxPages:   50,
		DocTimeout: 10 * time.Second,
		Heuristics: config.DefaultHeuristics(),
	}
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return cfg
}

func newTestRunner(t *testing.T, cfg config.Config, led Ledger) *Runner {
	t.Helper()
	opts, err := ExtractOptions(cfg, nil)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	return NewRunner(cfg, opts, led, nil)
}

func reportDoc() pdftest.Doc {
	return pdftest.Doc{
		Title: "Annual Report",
		Pages: [][]pdftest.Text{
			{
				{X: 72, Y: 700, Size: 24, Bold: true, S: "Annual Report"},
				{X: 72, Y: 600, Size: 11, S: "Prepared for the board of directors."},
			},
			{
				{X: 72, Y: 720, Size: 14, Bold: true, S: "1. Introduction to the Year"},
				{X: 72, Y: 690, Size: 11, S: "The year was eventful in many ways."},
				{X: 72, Y: 670, Size: 11, S: "Revenue grew and costs fell."},
				{X: 72, Y: 650, Size: 11, S: "Staff numbers stayed flat."},
				{X: 72, Y: 630, Size: 11, S: "Two offices opened in the north."},
				{X: 72, Y: 610, Size: 11, S: "One office closed in the south."},
			},
		},
	}
}

func readResult(t *testing.T, path string) doctree.Result {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res doctree.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return res
}

func TestRunner_PageCeilingSkipsAndContinues(t *testing.T) {
	cfg := testConfig(t)
	pdftest.Write(t, filepath.Join(cfg.InputDir, "a_big.pdf"), pdftest.Doc{Pages: pdftest.Pages(51)})
	pdftest.Write(t, filepath.Join(cfg.InputDir, "b_report.pdf"), reportDoc())

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Total != 2 || rep.SkippedLimit != 1 || rep.Completed != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Jobs[0].Status != StatusSkippedLimit || rep.Jobs[0].Pages != 51 {
		t.Errorf("expected big document skipped at 51 pages, got %+v", rep.Jobs[0])
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "a_big.json")); !os.IsNotExist(err) {
		t.Errorf("expected no output for skipped document, stat err=%v", err)
	}
	res := readResult(t, filepath.Join(cfg.OutputDir, "b_report.json"))
	if res.Title == "" {
		t.Error("expected a title")
	}
	if err := res.Validate(); err != nil {
		t.Errorf("output should validate: %v", err)
	}
	if res.Outline == nil {
		t.Error("outline should be an array, not null")
	}

	// The report grows past the ceiling: its earlier output must go.
	pdftest.Write(t, filepath.Join(cfg.InputDir, "b_report.pdf"), pdftest.Doc{Pages: pdftest.Pages(51)})
	rep, err = newTestRunner(t, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.SkippedLimit != 2 {
		t.Fatalf("expected both documents skipped, got %+v", rep)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "b_report.json")); !os.IsNotExist(err) {
		t.Errorf("expected output from the earlier run removed, stat err=%v", err)
	}
}

func TestRunner_FailureRemovesEarlierOutput(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.InputDir, "report.pdf")
	pdftest.Write(t, path, reportDoc())
	r := newTestRunner(t, cfg, nil)

	if job := r.ProcessFile(context.Background(), path); job.Snapshot().Status != StatusCompleted {
		t.Fatalf("first pass: %+v", job.Snapshot())
	}
	os.WriteFile(path, []byte("truncated"), 0o644)
	if job := r.ProcessFile(context.Background(), path); job.Snapshot().Status != StatusFailed {
		t.Fatalf("expected failure, got %+v", job.Snapshot())
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "report.json")); !os.IsNotExist(err) {
		t.Errorf("expected stale output removed, stat err=%v", err)
	}
}

func TestRunner_OneBatchAtATime(t *testing.T) {
	cfg := testConfig(t)
	pdftest.Write(t, filepath.Join(cfg.InputDir, "report.pdf"), reportDoc())
	r := newTestRunner(t, cfg, nil)

	r.batchMu.Lock()
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrBatchRunning) {
		t.Errorf("expected ErrBatchRunning while a batch holds the runner, got %v", err)
	}
	r.batchMu.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	processed := 0
	start := make(chan struct{})
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rep, err := r.Run(context.Background())
			if errors.Is(err, ErrBatchRunning) {
				return
			}
			if err != nil {
				t.Errorf("run: %v", err)
				return
			}
			mu.Lock()
			processed += rep.Total
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()
	if processed < 1 || processed > 2 {
		t.Errorf("expected one or two sequential passes, got %d documents", processed)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Errorf("runner should be free after batches finish: %v", err)
	}
}

func TestRunner_TimeBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocTimeout = time.Nanosecond
	path := filepath.Join(cfg.InputDir, "slow.pdf")
	pdftest.Write(t, path, reportDoc())

	job := newTestRunner(t, cfg, nil).ProcessFile(context.Background(), path)
	snap := job.Snapshot()
	if snap.Status != StatusSkippedLimit {
		t.Fatalf("expected skipped_limit, got %s (%v)", snap.Status, snap.Errors)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "slow.json")); !os.IsNotExist(err) {
		t.Error("expected no output after time budget")
	}
}

func TestRunner_ParseFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	os.WriteFile(filepath.Join(cfg.InputDir, "a_broken.pdf"), []byte("not a pdf at all"), 0o644)
	pdftest.Write(t, filepath.Join(cfg.InputDir, "b_report.pdf"), reportDoc())

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Failed != 1 || rep.Completed != 1 {
		t.Fatalf("expected one failure and one success, got %+v", rep)
	}
	if len(rep.Jobs[0].Errors) == 0 {
		t.Error("failed job should carry its error")
	}
}

func TestRunner_NativeFormats(t *testing.T) {
	cfg := testConfig(t)
	os.WriteFile(filepath.Join(cfg.InputDir, "notes.md"), []byte("# Notes\n\n## Part One\n"), 0o644)
	os.WriteFile(filepath.Join(cfg.InputDir, "ignored.txt"), []byte("plain"), 0o644)

	rep, err := newTestRunner(t, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Total != 0 {
		t.Fatalf("markdown should be ignored without native formats, got %+v", rep)
	}

	cfg.NativeFormats = true
	rep, err = newTestRunner(t, cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Total != 1 || rep.Completed != 1 {
		t.Fatalf("expected the markdown file to complete, got %+v", rep)
	}
	res := readResult(t, filepath.Join(cfg.OutputDir, "notes.json"))
	if res.Title != "Notes" || len(res.Outline) != 2 {
		t.Errorf("unexpected native result: %+v", res)
	}
	if res.Outline[1].Level != doctree.H2 || res.Outline[1].Page != 1 {
		t.Errorf("unexpected second entry: %+v", res.Outline[1])
	}
}

func TestRunner_LedgerSkipsUnchanged(t *testing.T) {
	cfg := testConfig(t)
	pdftest.Write(t, filepath.Join(cfg.InputDir, "report.pdf"), reportDoc())

	led, err := ledger.Open(":memory:")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	defer led.Close()

	r := newTestRunner(t, cfg, led)
	first, err := r.Run(context.Background())
	if err != nil || first.Completed != 1 {
		t.Fatalf("first run: %+v err=%v", first, err)
	}
	if first.Ledger[string(StatusCompleted)] != 1 {
		t.Errorf("expected ledger to count one completed document, got %v", first.Ledger)
	}

	second, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.SkippedUnchanged != 1 {
		t.Errorf("expected unchanged skip, got %+v", second)
	}

	// Removing the output forces a rerun.
	os.Remove(filepath.Join(cfg.OutputDir, "report.json"))
	third, _ := r.Run(context.Background())
	if third.Completed != 1 {
		t.Errorf("expected rerun when output is missing, got %+v", third)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	pdftest.Write(t, filepath.Join(cfg.InputDir, "report.pdf"), reportDoc())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRunner(t, cfg, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_MissingInputDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputDir = filepath.Join(cfg.InputDir, "nope")
	if _, err := newTestRunner(t, cfg, nil).Run(context.Background()); err == nil {
		t.Error("expected error for missing input dir")
	}
}

func TestRunner_ExtractUploadForcedArchetype(t *testing.T) {
	cfg := testConfig(t)
	job := newTestRunner(t, cfg, nil).ExtractUpload(context.Background(), "report.pdf", pdftest.Build(reportDoc()), archetype.Poster)
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s %v", snap.Status, snap.Errors)
	}
	if snap.Archetype != string(archetype.Poster) {
		t.Errorf("expected forced poster archetype, got %q", snap.Archetype)
	}
	if job.Result() == nil {
		t.Error("expected a result")
	}
	if snap.OutputPath != "" {
		t.Error("uploads should not write output")
	}
}

func TestWriteJSON_NoHTMLEscape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	res := doctree.Result{Title: "R&D <Plan>", Outline: []doctree.Entry{}}
	if err := writeJSON(path, res); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	want := "{\n  \"title\": \"R&D <Plan>\",\n  \"outline\": []\n}\n"
	if string(raw) != want {
		t.Errorf("unexpected output:\n%s", raw)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestRunner_Detect(t *testing.T) {
	cfg := testConfig(t)
	doc := pdftest.Doc{Pages: [][]pdftest.Text{{
		{X: 72, Y: 700, Size: 18, S: "Request for Proposal"},
		{X: 72, Y: 650, Size: 11, S: "Library services"},
	}}}
	kind, err := newTestRunner(t, cfg, nil).Detect(context.Background(), pdftest.Build(doc))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if kind != archetype.RFP {
		t.Errorf("expected rfp, got %q", kind)
	}
}
