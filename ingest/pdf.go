package ingest

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// PDF reads a PDF document. Each page exposes its native text layer when
// one exists and, for pages carrying image XObjects, a raster assembled
// from the largest embedded image. Pages with both are candidates for
// mixed-content handling downstream.
func PDF(path, name string) (*model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("reading PDF structure of %s: %w", path, err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("reading page dimensions of %s: %w", path, err)
	}

	texts := pdfTextLayers(path, ctx.PageCount)

	shared := &pdfDocument{ctx: ctx}
	contents := make([]model.PageContent, 0, ctx.PageCount)
	for number := 1; number <= ctx.PageCount; number++ {
		page := &pdfPage{
			doc:       shared,
			number:    number,
			hasImages: len(pdfcpu.ImageObjNrs(ctx, number)) > 0,
			width:     model.LetterWidth,
			height:    model.LetterHeight,
		}
		if number-1 < len(dims) && dims[number-1].Width > 0 && dims[number-1].Height > 0 {
			page.width = dims[number-1].Width
			page.height = dims[number-1].Height
		}
		if number-1 < len(texts) {
			page.text = texts[number-1]
		}
		contents = append(contents, page)
	}

	return model.NewDocument(name, format.PDF, contents), nil
}

// pdfTextLayers extracts per-page plain text. Extraction failures on
// individual pages leave that page without a text layer rather than
// failing the document; those pages route through OCR instead.
func pdfTextLayers(path string, pageCount int) []string {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	texts := make([]string, pageCount)
	n := reader.NumPage()
	if n > pageCount {
		n = pageCount
	}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts
}

// pdfDocument holds the parsed PDF shared by all of its pages. Image
// extraction mutates reader state inside the context, so it is serialized.
type pdfDocument struct {
	mu  sync.Mutex
	ctx *pdfmodel.Context
}

// extractRaster decodes the largest embedded image of one page.
func (d *pdfDocument) extractRaster(number int) (image.Image, error) {
	d.mu.Lock()
	images, err := pdfcpu.ExtractPageImages(d.ctx, number, false)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("extracting images from page %d: %w", number, err)
	}

	var best image.Image
	for _, img := range images {
		decoded, _, err := image.Decode(img)
		if err != nil {
			continue
		}
		if best == nil || area(decoded) > area(best) {
			best = decoded
		}
	}
	if best == nil {
		return nil, model.ErrNoRaster
	}
	return best, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// pdfPage is the content handle for one PDF page. The raster is extracted
// and decoded on first use and cached for the lifetime of the document.
type pdfPage struct {
	doc       *pdfDocument
	number    int
	text      string
	hasImages bool
	width     float64
	height    float64

	once      sync.Once
	raster    image.Image
	rasterErr error
}

// TextLayer returns the page's native text, or ErrNoTextLayer when the
// page has none.
func (p *pdfPage) TextLayer() (string, error) {
	if strings.TrimSpace(p.text) == "" {
		return "", model.ErrNoTextLayer
	}
	return p.text, nil
}

// Raster returns the page's largest embedded image.
func (p *pdfPage) Raster() (image.Image, error) {
	if !p.hasImages {
		return nil, model.ErrNoRaster
	}
	p.once.Do(func() {
		p.raster, p.rasterErr = p.doc.extractRaster(p.number)
	})
	return p.raster, p.rasterErr
}

// Bounds returns the page media box size in points.
func (p *pdfPage) Bounds() (float64, float64) {
	return p.width, p.height
}
