package lectern

import (
	"context"
	"strings"

	"github.com/tsawler/lectern/model"
	"github.com/tsawler/lectern/pipeline"
)

// Convert runs the full pipeline and returns the conversion result:
// ordered chunks, contained page errors, warnings, and the run summary.
// This is the primary terminal operation.
func (c *Converter) Convert(ctx context.Context) (*pipeline.Result, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	p := pipeline.New(c.options.pipelineConfig())
	return p.Run(ctx, doc)
}

// Chunks runs the conversion and returns just the chunk sequence. Partial
// results from runs that completed with page errors are still returned.
func (c *Converter) Chunks(ctx context.Context) ([]model.Chunk, error) {
	result, err := c.Convert(ctx)
	if err != nil {
		return nil, err
	}
	return result.Chunks, nil
}

// Text runs the conversion and returns the chunk texts joined with blank
// lines, for callers that want the document as one string.
func (c *Converter) Text(ctx context.Context) (string, error) {
	chunks, err := c.Chunks(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// PageCount reports the number of pages in the document, ingesting it if
// necessary.
func (c *Converter) PageCount() (int, error) {
	doc, err := c.Document()
	if err != nil {
		return 0, err
	}
	return doc.PageCount(), nil
}
