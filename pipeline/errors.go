package pipeline

import (
	"errors"
	"fmt"
)

// ErrOCRTimeout reports a per-page OCR call exceeding the configured
// timeout. It is contained at the page level and never aborts the run.
var ErrOCRTimeout = errors.New("ocr call timed out")

// ErrNoContent is the document-level failure returned when no page yielded
// any content. The wrapped cause distinguishes "nothing could be extracted"
// (e.g., a fully scanned document with no OCR engine reachable) from other
// total losses.
var ErrNoContent = errors.New("no content could be extracted from the document")

// Stage names a pipeline step for error reporting.
type Stage int

const (
	// StageClassify is the page classification step.
	StageClassify Stage = iota
	// StageExtract is native text extraction.
	StageExtract
	// StageOCR is raster preprocessing plus recognition.
	StageOCR
	// StageNormalize is the text cleanup step.
	StageNormalize
	// StageChunk is chunk assembly.
	StageChunk
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageClassify:
		return "classify"
	case StageExtract:
		return "extract"
	case StageOCR:
		return "ocr"
	case StageNormalize:
		return "normalize"
	case StageChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// PageError records a failure contained at the page level. The run
// continues; the error is reported against the page index in the result.
type PageError struct {
	Page  int
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PageError) Unwrap() error {
	return e.Err
}
