package model

import "image"

// Standard US Letter dimensions in points, used as the nominal geometry for
// content with no physical page size.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// TextContent is a PageContent backed by an in-memory string. It is used by
// ingestion adapters for formats without page geometry (plain text, DOCX,
// HTML) and by tests.
type TextContent struct {
	Text string

	// Width and Height override the nominal page size when non-zero.
	Width  float64
	Height float64
}

// TextLayer returns the stored text.
func (t *TextContent) TextLayer() (string, error) {
	return t.Text, nil
}

// Raster returns ErrNoRaster; text content has no image representation.
func (t *TextContent) Raster() (image.Image, error) {
	return nil, ErrNoRaster
}

// Bounds returns the configured or nominal page size.
func (t *TextContent) Bounds() (float64, float64) {
	if t.Width > 0 && t.Height > 0 {
		return t.Width, t.Height
	}
	return LetterWidth, LetterHeight
}

// ImageContent is a PageContent backed by a decoded raster image with no
// text layer, as produced for standalone image files and scanned PDF pages.
type ImageContent struct {
	Image image.Image

	// Width and Height override the page size in points when non-zero;
	// otherwise the pixel dimensions are used.
	Width  float64
	Height float64
}

// TextLayer returns ErrNoTextLayer; image content has no selectable text.
func (c *ImageContent) TextLayer() (string, error) {
	return "", ErrNoTextLayer
}

// Raster returns the stored image.
func (c *ImageContent) Raster() (image.Image, error) {
	return c.Image, nil
}

// Bounds returns the page size in points, falling back to pixel dimensions.
func (c *ImageContent) Bounds() (float64, float64) {
	if c.Width > 0 && c.Height > 0 {
		return c.Width, c.Height
	}
	if c.Image != nil {
		b := c.Image.Bounds()
		return float64(b.Dx()), float64(b.Dy())
	}
	return LetterWidth, LetterHeight
}
