package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// ErrUnsupportedFormat is returned for files whose format cannot be
// determined or is not handled by any adapter.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// File reads a document from disk, dispatching on the detected format.
// Detection tries the file extension first and falls back to content
// sniffing when the extension is missing or unrecognized.
func File(path string) (*model.Document, error) {
	f := format.Detect(path)
	if f == format.Unknown {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		info, err := fh.Stat()
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("inspecting %s: %w", path, err)
		}
		f, err = format.DetectFromReader(fh, info.Size())
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("detecting format of %s: %w", path, err)
		}
	}

	name := filepath.Base(path)
	switch f {
	case format.PDF:
		return PDF(path, name)
	case format.DOCX:
		return DOCX(path, name)
	case format.TXT:
		return TXT(path, name)
	case format.Image:
		return ImageFile(path, name)
	case format.HTML:
		return HTML(path, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
