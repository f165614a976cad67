package model

// PageState tracks a page through the pipeline state machine:
//
//	pending -> classified -> extracted -> normalized -> chunked
//
// with errored reachable from any step.
type PageState int

const (
	// StatePending means the page has not been processed yet.
	StatePending PageState = iota
	// StateClassified means the page classifier has run.
	StateClassified
	// StateExtracted means text extraction (native, OCR, or both) has run.
	StateExtracted
	// StateNormalized means the normalizer has run.
	StateNormalized
	// StateChunked means the page's text has been assembled into chunks.
	StateChunked
	// StateErrored means processing failed at some step; the page is
	// excluded from chunk assembly but does not halt the run.
	StateErrored
)

// String returns a human-readable representation of the state.
func (s PageState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateClassified:
		return "classified"
	case StateExtracted:
		return "extracted"
	case StateNormalized:
		return "normalized"
	case StateChunked:
		return "chunked"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is a per-page terminal state.
func (s PageState) Terminal() bool {
	return s == StateChunked || s == StateErrored
}

// RunState is the terminal state of a whole pipeline run.
type RunState int

const (
	// RunCompleted means every page reached the chunked state.
	RunCompleted RunState = iota
	// RunCompletedWithErrors means the run finished but one or more pages
	// errored.
	RunCompletedWithErrors
	// RunCancelled means the run was cancelled; chunks finalized before
	// cancellation are still delivered.
	RunCancelled
	// RunFailed means a document-level failure: no content could be
	// produced, or an internal invariant was violated.
	RunFailed
)

// String returns a human-readable representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunCompletedWithErrors:
		return "completed-with-errors"
	case RunCancelled:
		return "cancelled"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}
