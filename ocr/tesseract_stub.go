//go:build !ocr

package ocr

import "context"

// Tesseract is the stub engine used when the "ocr" build tag is not set.
// All operations report ErrEngineUnavailable.
type Tesseract struct{}

// NewTesseract returns ErrEngineUnavailable. Rebuild with -tags ocr (and
// Tesseract installed) to enable OCR support.
func NewTesseract(language string) (*Tesseract, error) {
	return nil, ErrEngineUnavailable
}

// Name identifies the engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Close is a no-op for the stub engine. It is safe to call on a nil engine.
func (t *Tesseract) Close() error { return nil }

// Recognize returns ErrEngineUnavailable.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	return Result{}, ErrEngineUnavailable
}
