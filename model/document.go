package model

import (
	"errors"
	"fmt"
	"image"

	"github.com/tsawler/lectern/format"
)

// ErrNoTextLayer is returned by PageContent.TextLayer when the page has no
// selectable text layer (e.g., a scanned image page).
var ErrNoTextLayer = errors.New("page has no text layer")

// ErrNoRaster is returned by PageContent.Raster when the page has no raster
// representation (e.g., a plain-text page).
var ErrNoRaster = errors.New("page has no raster image")

// PageContent is the raw content handle for a single page. Ingestion
// adapters implement it over their underlying parsers; tests implement it
// over in-memory fixtures.
//
// A page may expose a text layer, a raster, or both. Accessors return
// ErrNoTextLayer / ErrNoRaster when the corresponding representation is
// absent, and any other error when the underlying content is unreadable.
type PageContent interface {
	// TextLayer returns the page's selectable text in source reading order.
	TextLayer() (string, error)

	// Raster returns the page rendered (or embedded) as an image.
	Raster() (image.Image, error)

	// Bounds returns the page width and height in points. Implementations
	// that have no physical geometry (plain text) return a nominal US
	// Letter size.
	Bounds() (width, height float64)
}

// Classification is the routing decision for a page.
type Classification int

const (
	// ClassUnknown means the page has not been classified yet.
	ClassUnknown Classification = iota
	// ClassNativeText routes the page through native text extraction only.
	ClassNativeText
	// ClassImageOnly routes the page through OCR only.
	ClassImageOnly
	// ClassMixed routes the page through both native extraction and OCR.
	ClassMixed
)

// String returns a human-readable representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassNativeText:
		return "native-text"
	case ClassImageOnly:
		return "image-only"
	case ClassMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Page represents a single page of a document. Pages are owned by exactly
// one Document and are identified by a stable 0-based index matching source
// order.
type Page struct {
	Index   int
	Content PageContent

	// Class is the classification result, ClassUnknown until the page
	// classifier has run. Once computed it is not recomputed within a run.
	Class Classification
}

// Document represents a loaded document: an ordered sequence of pages plus
// its source format. Documents are immutable once constructed.
type Document struct {
	Name   string
	Format format.Format
	Pages  []*Page
}

// NewDocument creates a document over the given page content handles,
// assigning page indexes in order.
func NewDocument(name string, f format.Format, contents []PageContent) *Document {
	doc := &Document{
		Name:   name,
		Format: f,
		Pages:  make([]*Page, 0, len(contents)),
	}
	for i, c := range contents {
		doc.Pages = append(doc.Pages, &Page{Index: i, Content: c})
	}
	return doc
}

// PageCount returns the total number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// GetPage returns a page by 0-based index, or an error if out of bounds.
func (d *Document) GetPage(index int) (*Page, error) {
	if index < 0 || index >= len(d.Pages) {
		return nil, fmt.Errorf("page index %d out of bounds [0,%d)", index, len(d.Pages))
	}
	return d.Pages[index], nil
}
