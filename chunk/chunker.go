// Package chunk splits normalized per-page text into bounded-size segments
// safe for downstream model context limits, preserving page provenance.
//
// Boundary selection is deterministic and stable: re-running the chunker on
// identical input always yields an identical chunk sequence. When a
// prospective addition would exceed the maximum size, the chunk closes at
// the last paragraph or sentence boundary at or before the limit; if no
// boundary falls within the lookback window, it falls back to the last
// word break, and only then to a hard cut at the limit.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tsawler/lectern/model"
)

// ErrSizeViolation reports a chunk exceeding the configured maximum size.
// It indicates a chunker bug and is always fatal to the run.
var ErrSizeViolation = errors.New("chunk exceeds configured maximum size")

// Config holds the chunker sizing parameters. All sizes are measured in
// runes ("characters" in the configuration contract).
type Config struct {
	// MaxChunkSize is the hard upper bound on chunk length.
	// Default: 2000.
	MaxChunkSize int

	// MinChunkSize is the minimum chunk length; only the final chunk of a
	// document may fall below it. It also gates page-boundary flushing:
	// accumulated content shorter than this keeps accumulating across the
	// page break. Default: 100.
	MinChunkSize int

	// BoundaryLookback is how far back from the size limit to search for
	// a paragraph or sentence boundary before falling back to a word
	// break or hard cut. Default: 200.
	BoundaryLookback int
}

// DefaultConfig returns the default chunker configuration.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:     2000,
		MinChunkSize:     100,
		BoundaryLookback: 200,
	}
}

// PageText is the chunker's input unit: one page's normalized text with the
// extraction methods that produced it, supplied in page order.
type PageText struct {
	PageIndex int
	Text      string
	Methods   []model.Method
}

// Chunker assembles bounded chunks from page texts.
type Chunker struct {
	config Config
}

// New creates a chunker. Zero-valued config fields are replaced with
// defaults; a MinChunkSize at or above MaxChunkSize is clamped below it.
func New(config Config) *Chunker {
	def := DefaultConfig()
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = def.MaxChunkSize
	}
	if config.MinChunkSize <= 0 {
		config.MinChunkSize = def.MinChunkSize
	}
	if config.BoundaryLookback <= 0 {
		config.BoundaryLookback = def.BoundaryLookback
	}
	if config.MinChunkSize >= config.MaxChunkSize {
		config.MinChunkSize = config.MaxChunkSize / 2
	}
	return &Chunker{config: config}
}

// pageSpan maps a start offset in the accumulation buffer to the page that
// contributed the runes from that offset on.
type pageSpan struct {
	start   int
	page    int
	methods []model.Method
}

// builder carries the chunker's accumulation state through one document.
type builder struct {
	config Config
	buf    []rune
	spans  []pageSpan
	chunks []model.Chunk
}

// Chunk converts page texts, in page order, into the terminal chunk
// sequence. Sequence numbers are contiguous from 0. It returns
// ErrSizeViolation if an emitted chunk breaks the configured maximum,
// which callers must treat as fatal.
func (c *Chunker) Chunk(pages []PageText) ([]model.Chunk, error) {
	b := &builder{config: c.config}

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		// Force a boundary at the page break once enough content has
		// accumulated, keeping provenance simple for typical documents.
		if len(b.buf) >= c.config.MinChunkSize {
			b.flush(len(b.buf), model.BoundaryPageBoundary)
		}

		if len(b.buf) > 0 {
			b.buf = append(b.buf, '\n', '\n')
		}
		b.spans = append(b.spans, pageSpan{start: len(b.buf), page: page.PageIndex, methods: page.Methods})
		b.buf = append(b.buf, []rune(page.Text)...)

		for len(b.buf) > c.config.MaxChunkSize {
			cut, reason := b.findCut()
			b.flush(cut, reason)
		}
	}

	b.flush(len(b.buf), model.BoundaryPageBoundary)

	for _, chunk := range b.chunks {
		if chunk.Length > c.config.MaxChunkSize {
			return nil, fmt.Errorf("%w: chunk %d has length %d, max %d",
				ErrSizeViolation, chunk.Seq, chunk.Length, c.config.MaxChunkSize)
		}
	}
	return b.chunks, nil
}

// findCut returns the offset to close the current chunk at, together with
// the boundary reason, assuming the buffer exceeds the maximum size.
func (b *builder) findCut() (int, model.BoundaryReason) {
	limit := b.config.MaxChunkSize
	window := limit - b.config.BoundaryLookback
	if window < 0 {
		window = 0
	}

	// Paragraph break wholly at or before the limit.
	for p := limit - 1; p >= window; p-- {
		if p >= 1 && b.buf[p] == '\n' && b.buf[p+1] == '\n' {
			return p, model.BoundaryParagraph
		}
	}

	// Sentence end: terminal punctuation followed by whitespace.
	for p := limit; p > window; p-- {
		if isSentenceEnd(b.buf[p-1]) && unicode.IsSpace(b.buf[p]) {
			return p, model.BoundarySizeLimit
		}
	}

	// Word break.
	for p := limit; p >= window; p-- {
		if unicode.IsSpace(b.buf[p]) {
			return p, model.BoundarySizeLimit
		}
	}

	// No boundary within the lookback window: hard cut.
	return limit, model.BoundarySizeLimit
}

// flush emits the buffer content up to cut as a chunk (unless it trims to
// nothing) and rebases the remaining buffer and page spans.
func (b *builder) flush(cut int, reason model.BoundaryReason) {
	if cut <= 0 {
		return
	}

	text := strings.TrimRight(string(b.buf[:cut]), " \t\n")
	effectiveEnd := len([]rune(text))

	if text != "" {
		pageStart, pageEnd := -1, -1
		var methods []model.Method
		for _, span := range b.spans {
			if span.start >= effectiveEnd {
				break
			}
			if pageStart < 0 {
				pageStart = span.page
			}
			pageEnd = span.page
			methods = mergeMethods(methods, span.methods)
		}

		b.chunks = append(b.chunks, model.NewChunk(len(b.chunks), text, pageStart, pageEnd, reason, methods))
	}

	// Skip whitespace between the cut and the next chunk's content.
	skip := cut
	for skip < len(b.buf) && unicode.IsSpace(b.buf[skip]) {
		skip++
	}
	b.buf = append([]rune(nil), b.buf[skip:]...)

	var spans []pageSpan
	for _, span := range b.spans {
		ns := span.start - skip
		if ns <= 0 {
			// The latest span at or before the new origin covers offset 0.
			if len(spans) > 0 && spans[0].start == 0 {
				spans[0] = pageSpan{start: 0, page: span.page, methods: span.methods}
				continue
			}
			spans = append(spans, pageSpan{start: 0, page: span.page, methods: span.methods})
			continue
		}
		spans = append(spans, pageSpan{start: ns, page: span.page, methods: span.methods})
	}
	if len(b.buf) == 0 {
		spans = nil
	}
	b.spans = spans
}

// isSentenceEnd reports whether the rune terminates a sentence.
func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// mergeMethods unions methods into dst preserving first-seen order.
func mergeMethods(dst, src []model.Method) []model.Method {
	for _, m := range src {
		found := false
		for _, have := range dst {
			if have == m {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, m)
		}
	}
	return dst
}
