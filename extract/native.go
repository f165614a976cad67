// Package extract pulls selectable text from pages that carry a native text
// layer. It preserves the reading order given by the underlying text layer
// and performs no reordering or column detection.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/lectern/model"
)

// ErrExtractionEmpty is returned when a page classified as carrying text
// yields none. It signals a classifier/extractor disagreement; the caller is
// expected to log it and retry the page as image-only within the same run.
var ErrExtractionEmpty = errors.New("no text retrievable from text layer")

// Native extracts the text layer of one page and wraps it in an
// ExtractionResult with method native. The text is passed through verbatim
// apart from trailing whitespace; cleaning belongs to the normalizer.
func Native(page *model.Page) (model.ExtractionResult, error) {
	text, err := page.Content.TextLayer()
	if err != nil {
		if errors.Is(err, model.ErrNoTextLayer) {
			return model.ExtractionResult{}, ErrExtractionEmpty
		}
		return model.ExtractionResult{}, fmt.Errorf("reading text layer of page %d: %w", page.Index, err)
	}

	if strings.TrimSpace(text) == "" {
		return model.ExtractionResult{}, ErrExtractionEmpty
	}

	return model.ExtractionResult{
		PageIndex: page.Index,
		Text:      strings.TrimRight(text, " \t\r\n"),
		Method:    model.MethodNative,
	}, nil
}
