// Package lectern provides a fluent API for converting documents into
// clean, size-bounded text chunks suitable for language-model consumption.
//
// Basic usage:
//
//	result, err := lectern.Open("report.pdf").Convert(ctx)
//	if err != nil {
//	    // handle error
//	}
//	for _, chunk := range result.Chunks {
//	    fmt.Println(chunk.Text)
//	}
//
// With options:
//
//	chunks, err := lectern.Open("scan.pdf").
//	    MaxChunkSize(1000).
//	    Language("eng+deu").
//	    StripRepeatedLines().
//	    Chunks(ctx)
//
// For advanced use cases the ingest and pipeline packages are also
// available directly.
package lectern

import (
	"github.com/tsawler/lectern/ingest"
	"github.com/tsawler/lectern/model"
)

// Open prepares a document on disk for conversion. The file is not read
// until a terminal operation runs, so errors surface there.
//
// Example:
//
//	result, err := lectern.Open("document.pdf").Convert(ctx)
func Open(filename string) *Converter {
	return &Converter{
		filename: filename,
		options:  DefaultOptions(),
	}
}

// FromDocument prepares an already-ingested document for conversion. This
// is useful when pages come from a custom source rather than a file.
func FromDocument(doc *model.Document) *Converter {
	return &Converter{
		doc:     doc,
		options: DefaultOptions(),
	}
}

// Must wraps a call to a function returning (T, error) and panics if the
// error is non-nil. It is intended for scripts and tests where error
// handling would be cumbersome.
//
// Example:
//
//	chunks := lectern.Must(lectern.Open("document.pdf").Chunks(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Converter holds a pending conversion: the document source plus the
// accumulated options. Chainable methods return a modified copy, so a
// Converter can be stored and reused as a template.
type Converter struct {
	filename string
	doc      *model.Document
	options  Options
}

// clone creates a copy of the Converter for chainable configuration.
func (c *Converter) clone() *Converter {
	return &Converter{
		filename: c.filename,
		doc:      c.doc,
		options:  c.options.clone(),
	}
}

// Document returns the ingested document, reading the file on first use.
func (c *Converter) Document() (*model.Document, error) {
	if c.doc != nil {
		return c.doc, nil
	}
	doc, err := ingest.File(c.filename)
	if err != nil {
		return nil, err
	}
	c.doc = doc
	return doc, nil
}
