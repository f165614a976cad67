package ingest

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// ImageFile reads a standalone raster image as a one-page, image-only
// document. PNG, JPEG, TIFF, and BMP are decodable.
func ImageFile(path, name string) (*model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	return model.NewDocument(name, format.Image, []model.PageContent{
		&model.ImageContent{Image: img},
	}), nil
}
