package model

import (
	"fmt"
	"unicode/utf8"
)

// Method identifies how text was recovered from a page.
type Method int

const (
	// MethodNative means the text came from the page's selectable text layer.
	MethodNative Method = iota
	// MethodOCR means the text was recognized from a page raster.
	MethodOCR
)

// String returns a human-readable representation of the method.
func (m Method) String() string {
	switch m {
	case MethodNative:
		return "native"
	case MethodOCR:
		return "ocr"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal observation attached to an extraction result or a
// run summary, such as a low-confidence OCR region or a suspected repeated
// header line.
type Warning struct {
	Code    string
	Message string

	// PageIndex is the page the warning refers to, or -1 for
	// document-level warnings.
	PageIndex int
}

// String formats the warning for logs.
func (w Warning) String() string {
	if w.PageIndex >= 0 {
		return fmt.Sprintf("page %d: %s: %s", w.PageIndex, w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warning codes.
const (
	WarnLowConfidence  = "ocr-low-confidence"
	WarnRepeatedLine   = "repeated-line"
	WarnClassifierMiss = "classifier-disagreement"
	WarnOCRSkipped     = "ocr-skipped"
)

// ExtractionResult holds the raw text pulled from one page by one method.
// It is produced once per (page, method) and never mutated.
type ExtractionResult struct {
	PageIndex int
	Text      string
	Method    Method

	// Confidence is the mean recognition confidence in [0,1]. Only
	// meaningful when Method is MethodOCR; zero otherwise.
	Confidence float64

	Warnings []Warning
}

// NormalizedText is the cleaned form of one page's extracted text, derived
// deterministically from its ExtractionResults.
type NormalizedText struct {
	PageIndex int
	Text      string

	// Applied lists the names of normalization passes that changed the
	// text, in application order, for auditability.
	Applied []string
}

// BoundaryReason records why a chunk was closed where it was.
type BoundaryReason int

const (
	// BoundarySizeLimit means the chunk was closed to respect the maximum
	// chunk size (at a sentence/word boundary, or a hard cut).
	BoundarySizeLimit BoundaryReason = iota
	// BoundaryPageBoundary means the chunk was closed at a page boundary.
	BoundaryPageBoundary
	// BoundaryParagraph means the chunk was closed at a paragraph break.
	BoundaryParagraph
)

// String returns a human-readable representation of the boundary reason.
func (b BoundaryReason) String() string {
	switch b {
	case BoundarySizeLimit:
		return "size-limit"
	case BoundaryPageBoundary:
		return "page-boundary"
	case BoundaryParagraph:
		return "paragraph-boundary"
	default:
		return "unknown"
	}
}

// Chunk is a bounded-size unit of normalized text, the terminal artifact of
// the pipeline. Chunks are immutable.
type Chunk struct {
	// Seq is the globally unique sequence number: strictly increasing and
	// contiguous from 0 across the whole document.
	Seq int

	// PageStart and PageEnd are the 0-based indexes of the first and last
	// source pages contributing text to this chunk. Equal when the chunk
	// does not span a page boundary.
	PageStart int
	PageEnd   int

	Text string

	// Length is the chunk size in runes, the same unit used for the
	// configured maximum chunk size.
	Length int

	Reason BoundaryReason

	// Methods lists the extraction methods that contributed to this
	// chunk's pages, without duplicates, in first-seen order.
	Methods []Method
}

// NewChunk builds a chunk, computing its rune length.
func NewChunk(seq int, text string, pageStart, pageEnd int, reason BoundaryReason, methods []Method) Chunk {
	return Chunk{
		Seq:       seq,
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Text:      text,
		Length:    utf8.RuneCountInString(text),
		Reason:    reason,
		Methods:   methods,
	}
}

// SpansPages reports whether the chunk crosses a page boundary.
func (c Chunk) SpansPages() bool {
	return c.PageEnd > c.PageStart
}
