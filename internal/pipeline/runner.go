package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/extractor"
	"github.com/dgallion1/docoutline/internal/ledger"
	"github.com/dgallion1/docoutline/internal/parser"
)

// Ledger is the run history the runner consults to skip unchanged inputs.
type Ledger interface {
	Lookup(ctx context.Context, filename, hash string) (ledger.Record, bool, error)
	Record(ctx context.Context, r ledger.Record) error
}

// runCounter is implemented by ledgers that can summarise one run.
type runCounter interface {
	Counts(ctx context.Context, runID string) (map[string]int, error)
}

// Runner processes documents one at a time. Every document is independent:
// a failure or skip never stops the batch.
type Runner struct {
	cfg    config.Config
	opts   extractor.Options
	pdf    *parser.PDFParser
	ledger Ledger
	stats  *Stats
	jobs   *JobStore
	log    *slog.Logger

	// batchMu admits one batch at a time over the input and output dirs.
	batchMu sync.Mutex

	// pageCount is the cheap pre-check run before a PDF is opened.
	pageCount func(path string) (int, error)
}

// NewRunner builds a runner. led may be nil to disable the ledger.
func NewRunner(cfg config.Config, opts extractor.Options, led Ledger, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:       cfg,
		opts:      opts,
		pdf:       parser.NewPDFParser(),
		ledger:    led,
		stats:     NewStats(time.Hour),
		jobs:      NewJobStore(time.Hour),
		log:       log,
		pageCount: parser.PageCount,
	}
}

// Stats returns the rolling latency statistics.
func (r *Runner) Stats() *Stats { return r.stats }

// Jobs returns the registry of recent jobs.
func (r *Runner) Jobs() *JobStore { return r.jobs }

// Report summarises one batch run.
type Report struct {
	RunID            string        `json:"run_id"`
	Total            int           `json:"total"`
	Completed        int           `json:"completed"`
	Failed           int           `json:"failed"`
	SkippedLimit     int           `json:"skipped_limit"`
	SkippedUnchanged int           `json:"skipped_unchanged"`
	Duration         time.Duration `json:"duration"`
	// Ledger holds the per-status counts the ledger recorded for this run.
	Ledger map[string]int `json:"ledger,omitempty"`
	Jobs             []JobSnapshot `json:"jobs"`
}

func (rep *Report) add(snap JobSnapshot) {
	rep.Total++
	switch snap.Status {
	case StatusCompleted:
		rep.Completed++
	case StatusSkippedLimit:
		rep.SkippedLimit++
	case StatusSkippedUnchanged:
		rep.SkippedUnchanged++
	default:
		rep.Failed++
	}
	rep.Jobs = append(rep.Jobs, snap)
}

// Inputs lists the processable files in the input directory in name order.
func (r *Runner) Inputs() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if parser.IsSupportedExtension(e.Name(), r.cfg.NativeFormats) {
			out = append(out, filepath.Join(r.cfg.InputDir, e.Name()))
		}
	}
	return out, nil
}

// Run processes every input. It returns an error only when the batch
// cannot start or ctx is cancelled; per-document failures are in the report.
// A second Run while one is in progress fails with ErrBatchRunning.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.batchMu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer r.batchMu.Unlock()

	start := time.Now()
	rep := &Report{RunID: newID(), Jobs: []JobSnapshot{}}
	log := r.log.With("run_id", rep.RunID)

	inputs, err := r.Inputs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	log.Info("batch started", "input_dir", r.cfg.InputDir, "files", len(inputs))

	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			log.Warn("batch interrupted", "error", err)
			rep.Duration = time.Since(start)
			return rep, err
		}
		job := r.processFile(ctx, rep.RunID, path)
		rep.add(job.Snapshot())
	}

	rep.Duration = time.Since(start)
	if c, ok := r.ledger.(runCounter); ok {
		counts, err := c.Counts(ctx, rep.RunID)
		if err != nil {
			log.Warn("ledger counts failed", "error", err)
		}
		rep.Ledger = counts
	}
	log.Info("batch finished",
		"total", rep.Total,
		"completed", rep.Completed,
		"failed", rep.Failed,
		"skipped_limit", rep.SkippedLimit,
		"skipped_unchanged", rep.SkippedUnchanged,
		"duration_ms", rep.Duration.Milliseconds(),
	)
	return rep, nil
}

// ProcessFile extracts one input file and writes its JSON output.
func (r *Runner) ProcessFile(ctx context.Context, path string) *Job {
	return r.processFile(ctx, "", path)
}

func (r *Runner) processFile(ctx context.Context, runID, path string) *Job {
	job := NewJob(filepath.Base(path))
	r.jobs.Put(job)
	log := r.log.With("file", job.Filename, "job_id", job.ID)
	log.Info("document started")

	start := time.Now()
	out := r.OutputPath(job.Filename)
	res, dropped, err := r.processSafe(ctx, job, path, out, log)
	job.SetDuration(time.Since(start))
	r.finish(job, res, dropped, out, err, log)

	if r.ledger != nil && !errors.Is(err, errUnchanged) {
		r.record(ctx, runID, job, log)
	}
	return job
}

// processSafe turns a panic anywhere in one document into an error.
func (r *Runner) processSafe(ctx context.Context, job *Job, path, out string, log *slog.Logger) (res *doctree.Result, dropped int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read input: %w", err)
	}
	job.SetContentHash(ContentHashHex(data))

	if r.unchanged(ctx, job, out, log) {
		return nil, 0, errUnchanged
	}

	if parser.IsPDF(path) {
		res, dropped, err = r.extractPDF(ctx, job, path, "", log)
	} else {
		res, dropped, err = r.parseNative(job, data)
	}
	if err != nil {
		return nil, 0, err
	}
	if err := res.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid result: %w", err)
	}
	if err := writeJSON(out, res); err != nil {
		return nil, 0, err
	}
	return res, dropped, nil
}

func (r *Runner) unchanged(ctx context.Context, job *Job, out string, log *slog.Logger) bool {
	if r.ledger == nil {
		return false
	}
	snap := job.Snapshot()
	rec, ok, err := r.ledger.Lookup(ctx, snap.Filename, snap.ContentHash)
	if err != nil {
		log.Warn("ledger lookup failed, processing anyway", "error", err)
		return false
	}
	if !ok || rec.Status != string(StatusCompleted) {
		return false
	}
	_, err = os.Stat(out)
	return err == nil
}

func (r *Runner) finish(job *Job, res *doctree.Result, dropped int, out string, err error, log *slog.Logger) {
	switch {
	case err == nil:
		job.Complete(res, dropped, out)
		snap := job.Snapshot()
		log.Info("document completed",
			"archetype", snap.Archetype,
			"entries", snap.Entries,
			"pages", snap.Pages,
			"duration_ms", snap.DurationMs,
		)
	case errors.Is(err, errUnchanged):
		job.SetStatus(StatusSkippedUnchanged, "ledger")
		log.Info("document unchanged, skipped")
	case errors.Is(err, ErrTooManyPages):
		job.AddError(err.Error())
		job.SetStatus(StatusSkippedLimit, "page_count")
		log.Warn("document skipped", "reason", "page_ceiling", "error", err)
	case errors.Is(err, ErrTimeBudget):
		job.AddError(err.Error())
		job.SetStatus(StatusSkippedLimit, "extracting")
		log.Warn("document skipped", "reason", "time_budget", "error", err)
	default:
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		log.Error("document failed", "error", err)
	}
	if err != nil && !errors.Is(err, errUnchanged) {
		removeStale(out, log)
	}
	r.stats.Record(job.Snapshot())
}

// removeStale deletes output left by an earlier run, so a skipped or failed
// document never has output on disk.
func removeStale(out string, log *slog.Logger) {
	if out == "" {
		return
	}
	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("stale output not removed", "output", out, "error", err)
	}
}

func (r *Runner) record(ctx context.Context, runID string, job *Job, log *slog.Logger) {
	snap := job.Snapshot()
	rec := ledger.Record{
		Filename:    snap.Filename,
		ContentHash: snap.ContentHash,
		RunID:       runID,
		Status:      string(snap.Status),
		Archetype:   snap.Archetype,
		Entries:     snap.Entries,
		Output:      snap.OutputPath,
		Error:       strings.Join(snap.Errors, "; "),
		DurationMs:  snap.DurationMs,
	}
	if rec.ContentHash == "" {
		return
	}
	if err := r.ledger.Record(ctx, rec); err != nil {
		log.Warn("ledger record failed", "error", err)
	}
}

// extractPDF enforces the page ceiling and time budget around one
// extraction. kind forces an archetype when non-empty.
func (r *Runner) extractPDF(ctx context.Context, job *Job, path string, kind archetype.Archetype, log *slog.Logger) (*doctree.Result, int, error) {
	job.SetStatus(StatusParsing, "page_count")
	n, err := r.pageCount(path)
	if err != nil {
		// The layout provider is more lenient than the validator; let it decide.
		log.Debug("page count pre-check failed", "error", err)
		n = 0
	}
	if err := r.checkPages(n); err != nil {
		job.SetPages(n)
		return nil, 0, err
	}

	job.SetStatus(StatusParsing, "opening")
	doc, err := r.pdf.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer doc.Close()

	if n == 0 {
		n = doc.NumPages()
		if err := r.checkPages(n); err != nil {
			job.SetPages(n)
			return nil, 0, err
		}
	}
	job.SetPages(n)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.DocTimeout)
	defer cancel()

	job.SetStatus(StatusExtracting, "extracting")
	opts := r.opts
	opts.Logger = log
	if kind != "" {
		opts.Archetype = kind
	}
	outcome, err := extractor.Extract(ctx, doc, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: %s", ErrTimeBudget, r.cfg.DocTimeout)
		}
		return nil, 0, fmt.Errorf("extract: %w", err)
	}
	job.SetArchetype(string(outcome.Archetype))
	for _, i := range outcome.Unreadable {
		job.AddError(fmt.Sprintf("page %d unreadable", i+1))
	}
	return &outcome.Result, outcome.Dropped, nil
}

func (r *Runner) checkPages(n int) error {
	if n > r.cfg.MaxPages {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPages, n, r.cfg.MaxPages)
	}
	return nil
}

func (r *Runner) parseNative(job *Job, data []byte) (*doctree.Result, int, error) {
	job.SetStatus(StatusParsing, "native")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, 0, err
	}
	res, err := p.ParseOutline(bytes.NewReader(data), job.Filename)
	if err != nil {
		return nil, 0, fmt.Errorf("parse: %w", err)
	}
	dropped := res.Sanitize()
	job.SetPages(1)
	job.SetArchetype("native")
	return res, dropped, nil
}

// ExtractUpload runs one uploaded document without writing output. kind
// forces an archetype for PDFs when non-empty.
func (r *Runner) ExtractUpload(ctx context.Context, filename string, data []byte, kind archetype.Archetype) *Job {
	job := NewJob(filepath.Base(filename))
	r.jobs.Put(job)
	log := r.log.With("file", job.Filename, "job_id", job.ID, "source", "upload")
	job.SetContentHash(ContentHashHex(data))

	start := time.Now()
	res, dropped, err := r.uploadSafe(ctx, job, data, kind, log)
	job.SetDuration(time.Since(start))
	r.finish(job, res, dropped, "", err, log)
	return job
}

func (r *Runner) uploadSafe(ctx context.Context, job *Job, data []byte, kind archetype.Archetype, log *slog.Logger) (res *doctree.Result, dropped int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()

	if !parser.IsPDF(job.Filename) {
		return r.parseNative(job, data)
	}

	// Both PDF libraries want a file on disk.
	tmp, err := os.CreateTemp("", "docoutline-upload-*.pdf")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	return r.extractPDF(ctx, job, tmpPath, kind, log)
}

// OutputPath is where the JSON for an input named filename is written.
func (r *Runner) OutputPath(filename string) string {
	base := filepath.Base(filename)
	return filepath.Join(r.cfg.OutputDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// writeJSON writes v to path through a temp file and rename, so readers
// never see a partial file.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docoutline-*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Janitor evicts expired jobs from the registry until ctx is done.
func (r *Runner) Janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.jobs.Cleanup()
		}
	}
}

// Detect classifies an uploaded PDF from its first pages without extracting it.
func (r *Runner) Detect(ctx context.Context, data []byte) (archetype.Archetype, error) {
	doc, err := r.pdf.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.DocTimeout)
	defer cancel()
	kind, err := extractor.Detect(ctx, doc)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %s", ErrTimeBudget, r.cfg.DocTimeout)
	}
	return kind, err
}
