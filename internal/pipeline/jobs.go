package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/google/uuid"
)

// JobStatus represents the state of one document's extraction.
type JobStatus string

const (
	StatusQueued           JobStatus = "queued"
	StatusParsing          JobStatus = "parsing"
	StatusExtracting       JobStatus = "extracting"
	StatusCompleted        JobStatus = "completed"
	StatusFailed           JobStatus = "failed"
	StatusSkippedLimit     JobStatus = "skipped_limit"
	StatusSkippedUnchanged JobStatus = "skipped_unchanged"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkippedLimit, StatusSkippedUnchanged:
		return true
	}
	return false
}

// Job tracks a single document through the pipeline.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`

	Archetype   string `json:"archetype,omitempty"`
	Pages       int    `json:"pages"`
	Entries     int    `json:"entries"`
	Dropped     int    `json:"dropped"`
	DurationMs  int64  `json:"duration_ms"`
	OutputPath  string `json:"output,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	result *doctree.Result
	errors []string
}

// NewJob returns a queued job with a fresh time-ordered ID.
func NewJob(filename string) *Job {
	now := time.Now()
	return &Job{
		ID:        newID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newID returns a UUIDv7, so IDs sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetContentHash records the SHA-256 of the input.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// SetPages records the document's page count.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Pages = n
	j.UpdatedAt = time.Now()
}

// SetArchetype records the strategy used.
func (j *Job) SetArchetype(kind string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Archetype = kind
}

// Complete stores the final result and marks the job completed.
func (j *Job) Complete(res *doctree.Result, dropped int, output string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Entries = len(res.Outline)
	j.Dropped = dropped
	j.OutputPath = output
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// SetDuration records how long the job took.
func (j *Job) SetDuration(d time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DurationMs = d.Milliseconds()
}

// Result returns the extracted outline, or nil if the job did not complete.
func (j *Job) Result() *doctree.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Archetype   string    `json:"archetype,omitempty"`
	Pages       int       `json:"pages"`
	Entries     int       `json:"entries"`
	Dropped     int       `json:"dropped"`
	DurationMs  int64     `json:"duration_ms"`
	OutputPath  string    `json:"output,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Errors      []string  `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Archetype:   j.Archetype,
		Pages:       j.Pages,
		Entries:     j.Entries,
		Dropped:     j.Dropped,
		DurationMs:  j.DurationMs,
		OutputPath:  j.OutputPath,
		ContentHash: j.ContentHash,
		Errors:      errs,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs older than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
