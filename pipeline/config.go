package pipeline

import (
	"log/slog"
	"time"

	"github.com/tsawler/lectern/chunk"
	"github.com/tsawler/lectern/classify"
	"github.com/tsawler/lectern/model"
	"github.com/tsawler/lectern/ocr"
	"github.com/tsawler/lectern/preprocess"
)

// Progress is one per-page status update delivered to the progress
// callback. Err is non-nil only when State is StateErrored.
type Progress struct {
	PageIndex int
	State     model.PageState
	Err       error
}

// Config configures a pipeline. The zero value is usable: defaults() fills
// in every field a run needs.
type Config struct {
	// Classify holds the page classification thresholds.
	Classify classify.Config

	// Preprocess toggles the raster cleanup operations ahead of OCR.
	Preprocess preprocess.Config

	// Chunk holds the chunk sizing parameters.
	Chunk chunk.Config

	// OCRLanguage is the language hint passed to the OCR engine
	// (default: "eng").
	OCRLanguage string

	// OCRLowConfidence is the word-confidence cutoff below which OCR
	// output is flagged with a low-confidence warning (default: 0.60).
	OCRLowConfidence float64

	// OCRTimeout bounds each per-page OCR call (default: 30s).
	OCRTimeout time.Duration

	// MaxConcurrentPages bounds the page worker pool and the number of
	// live OCR engines (default: 4).
	MaxConcurrentPages int

	// StripRepeatedLines removes suspected running headers/footers that
	// repeat verbatim across pages. Off by default: detection always
	// flags, removal is opt-in.
	StripRepeatedLines bool

	// EngineFactory creates OCR engines for the pool. Defaults to the
	// Tesseract engine (or its unavailable stub, without the ocr build
	// tag). Substituting an engine never requires changes elsewhere.
	EngineFactory func() (ocr.Engine, error)

	// OnProgress, when set, receives one update per page state change.
	// Calls are serialized; the callback must not block for long.
	OnProgress func(Progress)

	// Logger for debug/error messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.OCRLanguage == "" {
		c.OCRLanguage = "eng"
	}
	if c.OCRLowConfidence <= 0 {
		c.OCRLowConfidence = 0.60
	}
	if c.OCRTimeout <= 0 {
		c.OCRTimeout = 30 * time.Second
	}
	if c.MaxConcurrentPages <= 0 {
		c.MaxConcurrentPages = 4
	}
	if c.EngineFactory == nil {
		lang := c.OCRLanguage
		c.EngineFactory = func() (ocr.Engine, error) {
			return ocr.NewTesseract(lang)
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
