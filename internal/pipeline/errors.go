package pipeline

import "errors"

// Resource-limit errors. A document that hits either is skipped with no
// output written.
var (
	ErrTooManyPages = errors.New("page count exceeds ceiling")
	ErrTimeBudget   = errors.New("document time budget exceeded")
)

// ErrBatchRunning is returned by Run while another batch holds the runner.
var ErrBatchRunning = errors.New("batch already running")

// errUnchanged marks an input the ledger says is already done.
var errUnchanged = errors.New("unchanged since last run")
