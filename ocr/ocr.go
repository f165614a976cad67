// Package ocr provides OCR (Optical Character Recognition) capabilities for
// recovering text from page rasters.
//
// The package is polymorphic over the underlying engine: anything satisfying
// Engine can be plugged into the pipeline without changing callers. The
// default implementation wraps the Tesseract engine via gosseract and is
// compiled in with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// Without the tag, NewTesseract returns ErrEngineUnavailable and documents
// that need OCR report their pages as skipped.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrEngineUnavailable is returned when no OCR engine is installed or
// reachable, including builds without the "ocr" tag.
var ErrEngineUnavailable = errors.New("OCR engine unavailable; install Tesseract and rebuild with -tags ocr")

// Input is one raster submitted for recognition.
type Input struct {
	// Image is the (possibly preprocessed) page raster.
	Image image.Image

	// Language is a Tesseract-style language hint such as "eng" or
	// "eng+fra". Empty means the engine default.
	Language string
}

// Word is a single recognized token with its confidence in [0,1].
type Word struct {
	Text       string
	Confidence float64
}

// Result is the recognition output for one input.
type Result struct {
	// Text is the recognized text with leading/trailing whitespace trimmed.
	Text string

	// Confidence is the mean word confidence in [0,1]. Zero when the
	// engine reports no word-level confidences.
	Confidence float64

	// Words carries per-word confidences so callers can flag
	// low-confidence regions with their own cutoff.
	Words []Word
}

// Engine recognizes text in page rasters. Implementations are not required
// to be safe for concurrent use; use a Pool to share engines across
// workers.
type Engine interface {
	// Name identifies the engine for logs and run summaries.
	Name() string

	// Recognize performs OCR on one raster. Implementations should honor
	// ctx cancellation between internal steps where possible, but callers
	// must assume a call that has started will run to completion.
	Recognize(ctx context.Context, in Input) (Result, error)

	// Close releases engine resources. Safe to call once.
	Close() error
}

// LowConfidenceWords returns the words whose confidence falls below the
// cutoff. An empty result means the recognition cleared the bar everywhere.
func (r Result) LowConfidenceWords(cutoff float64) []Word {
	var low []Word
	for _, w := range r.Words {
		if w.Confidence < cutoff {
			low = append(low, w)
		}
	}
	return low
}
