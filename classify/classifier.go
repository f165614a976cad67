// Package classify decides, per page, whether text should be recovered from
// the native text layer, from OCR over the page raster, or both.
//
// The decision is made from two cheap signals: the character density of the
// text layer relative to the page area, and an estimate of how much of the
// page that text plausibly covers. Pages whose text layer is dense enough
// are native; pages with no text layer are image-only; pages with a thin
// text layer over a raster (a scanned page with an OCR'd caption, say) are
// mixed and take both extraction paths.
package classify

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tsawler/lectern/model"
)

// ErrPageUnreadable is returned when a page's content handle yields neither
// a text layer nor a raster. The orchestrator records it and skips the page.
var ErrPageUnreadable = errors.New("page content is unreadable")

// nominalGlyphArea is the assumed area of one rendered character in square
// points, used to estimate how much of the page a text layer covers.
const nominalGlyphArea = 40.0

// Config holds the classification thresholds.
type Config struct {
	// NativeTextDensityThreshold is the minimum character density, in
	// characters per 1000 square points of page area, for a page to count
	// as carrying a non-trivial text layer.
	NativeTextDensityThreshold float64

	// MixedPageTextCoverageThreshold is the estimated text coverage
	// fraction below which a page with both a text layer and a raster is
	// classified mixed rather than native.
	MixedPageTextCoverageThreshold float64
}

// DefaultConfig returns the default classification thresholds.
func DefaultConfig() Config {
	return Config{
		NativeTextDensityThreshold:     0.15,
		MixedPageTextCoverageThreshold: 0.10,
	}
}

// Classifier inspects page content handles and produces routing decisions.
type Classifier struct {
	config Config
}

// New creates a classifier with the given thresholds. Zero-valued thresholds
// are replaced with defaults.
func New(config Config) *Classifier {
	def := DefaultConfig()
	if config.NativeTextDensityThreshold <= 0 {
		config.NativeTextDensityThreshold = def.NativeTextDensityThreshold
	}
	if config.MixedPageTextCoverageThreshold <= 0 {
		config.MixedPageTextCoverageThreshold = def.MixedPageTextCoverageThreshold
	}
	return &Classifier{config: config}
}

// Classify inspects one page's content handle and returns its routing
// decision. It returns ErrPageUnreadable (possibly wrapped) when the handle
// exposes neither representation or fails on both.
func (c *Classifier) Classify(content model.PageContent) (model.Classification, error) {
	text, textErr := content.TextLayer()
	hasText := textErr == nil && len(text) > 0

	// Probe the raster without decoding more than the handle requires.
	raster, rasterErr := content.Raster()
	hasRaster := rasterErr == nil && raster != nil

	if textErr != nil && !errors.Is(textErr, model.ErrNoTextLayer) && !hasRaster {
		return model.ClassUnknown, fmt.Errorf("%w: %v", ErrPageUnreadable, textErr)
	}
	if !hasText && !hasRaster {
		if rasterErr != nil && !errors.Is(rasterErr, model.ErrNoRaster) {
			return model.ClassUnknown, fmt.Errorf("%w: %v", ErrPageUnreadable, rasterErr)
		}
		return model.ClassUnknown, ErrPageUnreadable
	}

	if !hasText {
		return model.ClassImageOnly, nil
	}

	width, height := content.Bounds()
	density := textDensity(text, width, height)

	if density < c.config.NativeTextDensityThreshold {
		// Trivial text layer. With a raster available the pixels are the
		// better source; without one, native extraction is all there is.
		if hasRaster {
			return model.ClassImageOnly, nil
		}
		return model.ClassNativeText, nil
	}

	if hasRaster && textCoverage(text, width, height) < c.config.MixedPageTextCoverageThreshold {
		return model.ClassMixed, nil
	}

	return model.ClassNativeText, nil
}

// textDensity returns characters per 1000 square points of page area.
func textDensity(text string, width, height float64) float64 {
	area := width * height
	if area <= 0 {
		area = model.LetterWidth * model.LetterHeight
	}
	return float64(utf8.RuneCountInString(text)) / (area / 1000.0)
}

// textCoverage estimates the fraction of the page area occupied by the text
// layer, assuming a nominal glyph footprint.
func textCoverage(text string, width, height float64) float64 {
	area := width * height
	if area <= 0 {
		area = model.LetterWidth * model.LetterHeight
	}
	coverage := float64(utf8.RuneCountInString(text)) * nominalGlyphArea / area
	if coverage > 1 {
		coverage = 1
	}
	return coverage
}
