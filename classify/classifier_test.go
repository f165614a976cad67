package classify

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/tsawler/lectern/model"
)

// brokenContent fails both accessors, simulating a corrupt page.
type brokenContent struct{}

func (brokenContent) TextLayer() (string, error)   { return "", errors.New("corrupt stream") }
func (brokenContent) Raster() (image.Image, error) { return nil, errors.New("corrupt stream") }
func (brokenContent) Bounds() (float64, float64)   { return model.LetterWidth, model.LetterHeight }

// scannedWithCaption has a raster plus a short OCR'd caption text layer.
type scannedWithCaption struct {
	caption string
	img     image.Image
}

func (s *scannedWithCaption) TextLayer() (string, error)   { return s.caption, nil }
func (s *scannedWithCaption) Raster() (image.Image, error) { return s.img, nil }
func (s *scannedWithCaption) Bounds() (float64, float64)   { return model.LetterWidth, model.LetterHeight }

func fullPageText() string {
	// Roughly a full page of prose: well above both thresholds.
	return strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
}

func TestClassify_NativeText(t *testing.T) {
	c := New(DefaultConfig())
	got, err := c.Classify(&model.TextContent{Text: fullPageText()})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != model.ClassNativeText {
		t.Errorf("Classify() = %v, want native-text", got)
	}
}

func TestClassify_ImageOnly(t *testing.T) {
	c := New(DefaultConfig())
	img := image.NewGray(image.Rect(0, 0, 800, 1000))
	got, err := c.Classify(&model.ImageContent{Image: img})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != model.ClassImageOnly {
		t.Errorf("Classify() = %v, want image-only", got)
	}
}

func TestClassify_Mixed(t *testing.T) {
	c := New(DefaultConfig())
	// A caption-sized text layer over a full-page scan: dense enough to
	// count as a text layer, far too small to cover the page.
	caption := strings.Repeat("Figure 3: cell structures observed at 40x magnification. ", 3)
	content := &scannedWithCaption{
		caption: caption,
		img:     image.NewGray(image.Rect(0, 0, 800, 1000)),
	}

	got, err := c.Classify(content)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != model.ClassMixed {
		t.Errorf("Classify() = %v, want mixed", got)
	}
}

func TestClassify_TrivialTextWithRaster(t *testing.T) {
	c := New(DefaultConfig())
	// A handful of stray characters over a scan is noise, not a text layer.
	content := &scannedWithCaption{
		caption: "p. 7",
		img:     image.NewGray(image.Rect(0, 0, 800, 1000)),
	}

	got, err := c.Classify(content)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != model.ClassImageOnly {
		t.Errorf("Classify() = %v, want image-only", got)
	}
}

func TestClassify_SparseTextNoRaster(t *testing.T) {
	c := New(DefaultConfig())
	// Sparse text with no raster still routes native: there is nothing
	// else to extract from.
	got, err := c.Classify(&model.TextContent{Text: "p. 7"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != model.ClassNativeText {
		t.Errorf("Classify() = %v, want native-text", got)
	}
}

func TestClassify_Unreadable(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Classify(brokenContent{})
	if !errors.Is(err, ErrPageUnreadable) {
		t.Errorf("Classify() error = %v, want ErrPageUnreadable", err)
	}
}

func TestClassify_EmptyEverything(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Classify(&model.TextContent{Text: ""})
	if !errors.Is(err, ErrPageUnreadable) {
		t.Errorf("Classify() error = %v, want ErrPageUnreadable for empty page", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	def := DefaultConfig()
	if c.config.NativeTextDensityThreshold != def.NativeTextDensityThreshold {
		t.Errorf("zero density threshold not defaulted")
	}
	if c.config.MixedPageTextCoverageThreshold != def.MixedPageTextCoverageThreshold {
		t.Errorf("zero coverage threshold not defaulted")
	}
}

func TestTextDensity(t *testing.T) {
	// 100 chars on a letter page: 100 / 484.704 ≈ 0.206 per 1000 pt².
	d := textDensity(strings.Repeat("a", 100), model.LetterWidth, model.LetterHeight)
	if d < 0.20 || d > 0.21 {
		t.Errorf("textDensity() = %v, want ~0.206", d)
	}

	// Zero area falls back to the nominal page.
	if z := textDensity("abc", 0, 0); z <= 0 {
		t.Errorf("textDensity() with zero area = %v", z)
	}
}

func TestTextCoverage_Capped(t *testing.T) {
	if got := textCoverage(strings.Repeat("a", 1_000_000), 100, 100); got != 1 {
		t.Errorf("textCoverage() = %v, want capped at 1", got)
	}
}
