// Package format provides source-format detection for the lectern library.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// TXT indicates a plain-text document.
	TXT
	// Image indicates a standalone raster image (PNG or JPEG).
	Image
	// HTML indicates an HTML document.
	HTML
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case DOCX:
		return "DOCX"
	case TXT:
		return "TXT"
	case Image:
		return "Image"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	case TXT:
		return ".txt"
	case Image:
		return ".png"
	case HTML:
		return ".html"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".txt", ".text", ".md":
		return TXT
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return Image
	case ".html", ".htm":
		return HTML
	default:
		return Unknown
	}
}

// DetectFromMagic checks file magic bytes to determine format.
// This provides more reliable detection than extension-based detection.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	// PDF magic: %PDF
	if data[0] == '%' && data[1] == 'P' && data[2] == 'D' && data[3] == 'F' {
		return PDF
	}

	// ZIP magic (DOCX is a ZIP archive): PK\x03\x04
	if data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04 {
		// Could be DOCX or another ZIP-based format.
		// Return Unknown here - caller should use DetectFromReader for ZIP files.
		return Unknown
	}

	// PNG magic: \x89PNG
	if data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return Image
	}

	// JPEG magic: \xFF\xD8\xFF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return Image
	}

	// HTML detection: check for <!DOCTYPE or <html or <?xml
	if detectHTMLMagic(data) {
		return HTML
	}

	return Unknown
}

// htmlSignatures mark a document as HTML when one of them opens the
// content. Matched case-insensitively after leading whitespace.
var htmlSignatures = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
}

// detectHTMLMagic reports whether the data starts like an HTML document.
// An XML declaration followed by an <html> element counts as XHTML.
func detectHTMLMagic(data []byte) bool {
	lower := bytes.ToLower(bytes.TrimLeft(data, " \t\r\n"))
	for _, sig := range htmlSignatures {
		if bytes.HasPrefix(lower, sig) {
			return true
		}
	}
	if bytes.HasPrefix(lower, []byte("<?xml")) {
		if len(lower) > 500 {
			lower = lower[:500]
		}
		return bytes.Contains(lower, []byte("<html"))
	}
	return false
}

// DetectFromReader inspects the content to determine format.
// This is more reliable than extension-based detection and can
// distinguish DOCX from other ZIP-based formats.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	// Read magic bytes first (need more for HTML detection)
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	// Check for ZIP-based format
	if len(magic) >= 4 && magic[0] == 0x50 && magic[1] == 0x4B && magic[2] == 0x03 && magic[3] == 0x04 {
		// It's a ZIP archive - check contents to determine specific format
		return detectZIPFormat(r, size)
	}

	if f := DetectFromMagic(magic); f != Unknown {
		return f, nil
	}

	// Mostly-printable content is treated as plain text.
	if looksLikeText(magic) {
		return TXT, nil
	}

	return Unknown, nil
}

// detectZIPFormat inspects a ZIP archive to determine if it's DOCX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return DOCX, nil
		}
	}

	return Unknown, nil
}

// looksLikeText reports whether the sample is plausibly plain text:
// no NUL bytes and a high ratio of printable or whitespace bytes.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	printable := 0
	for _, b := range data {
		if b == 0 {
			return false
		}
		if b == '\n' || b == '\r' || b == '\t' || b >= 0x20 {
			printable++
		}
	}
	return float64(printable)/float64(len(data)) > 0.95
}
