//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract wraps a gosseract client as an Engine. A Tesseract value owns
// one native client and must not be used from multiple goroutines at once.
type Tesseract struct {
	client   *gosseract.Client
	language string
}

// NewTesseract creates a Tesseract-backed engine. The engine must be closed
// when no longer needed to release the native client.
func NewTesseract(language string) (*Tesseract, error) {
	client := gosseract.NewClient()
	t := &Tesseract{client: client, language: language}
	if language != "" {
		if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: setting language %q: %v", ErrEngineUnavailable, language, err)
		}
	}
	return t, nil
}

// Name identifies the engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Close releases the native client.
func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Recognize performs OCR on the input raster. The raster is encoded as PNG
// for the native client; word confidences come from Tesseract's word-level
// bounding boxes.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if in.Image == nil {
		return Result{}, fmt.Errorf("nil input image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, in.Image); err != nil {
		return Result{}, fmt.Errorf("encoding raster: %w", err)
	}

	if in.Language != "" && in.Language != t.language {
		if err := t.client.SetLanguage(strings.Split(in.Language, "+")...); err != nil {
			return Result{}, fmt.Errorf("setting language %q: %w", in.Language, err)
		}
		t.language = in.Language
	}

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("setting image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	text, err := t.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognizing text: %w", err)
	}

	result := Result{Text: strings.TrimSpace(text)}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil && len(boxes) > 0 {
		var sum float64
		result.Words = make([]Word, 0, len(boxes))
		for _, b := range boxes {
			conf := b.Confidence / 100.0
			sum += conf
			result.Words = append(result.Words, Word{Text: b.Word, Confidence: conf})
		}
		result.Confidence = sum / float64(len(boxes))
	}

	return result, nil
}
