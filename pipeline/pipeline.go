// Package pipeline orchestrates document conversion: it drives the page
// classifier, extractors, normalizer, and chunker across a document's
// pages, contains per-page failures, reports progress, and assembles the
// final chunk sequence in strict page order.
//
// Page-level work runs concurrently up to a configured worker limit, but
// results land in a page-indexed arena and are assembled in page order, so
// a page finishing OCR late can never disturb chunk ordering. All run state
// lives in an explicit run value; processing several documents at once
// never interferes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tsawler/lectern/chunk"
	"github.com/tsawler/lectern/classify"
	"github.com/tsawler/lectern/extract"
	"github.com/tsawler/lectern/model"
	"github.com/tsawler/lectern/normalize"
	"github.com/tsawler/lectern/ocr"
	"github.com/tsawler/lectern/preprocess"
)

// Pipeline converts documents into chunk sequences. A Pipeline is immutable
// after New and safe for concurrent use; each Run gets its own state.
type Pipeline struct {
	config     Config
	classifier *classify.Classifier
	pre        *preprocess.Preprocessor
	normalizer *normalize.Normalizer
	chunker    *chunk.Chunker
}

// New creates a pipeline with the given configuration, filling unset
// fields with defaults.
func New(config Config) *Pipeline {
	config.defaults()
	return &Pipeline{
		config:     config,
		classifier: classify.New(config.Classify),
		pre:        preprocess.New(config.Preprocess),
		normalizer: normalize.New(),
		chunker:    chunk.New(config.Chunk),
	}
}

// Summary is the final per-run accounting reported to the consumer.
type Summary struct {
	TotalPages   int
	NativePages  int
	OCRPages     int
	MixedPages   int
	ErroredPages int

	// SkippedOCR counts pages whose OCR step was skipped with a recorded
	// reason (engine unavailable, timeout) rather than silently dropped.
	SkippedOCR int
}

// Result is the terminal artifact of one run: the ordered chunk sequence
// plus everything a consumer needs to report on the run.
type Result struct {
	State    model.RunState
	Chunks   []model.Chunk
	Errors   []*PageError
	Warnings []model.Warning
	Summary  Summary
}

// pageOutcome is one slot of the page-indexed arena the workers fill in.
// Assembly walks the arena in page order regardless of completion order.
type pageOutcome struct {
	state    model.PageState
	class    model.Classification
	text     string
	methods  []model.Method
	warnings []model.Warning
	err      *PageError

	// ocrSkipped marks a page whose OCR path was skipped with a recorded
	// reason while other content may still have survived.
	ocrSkipped bool
}

// run bundles the mutable state of one conversion.
type run struct {
	p        *Pipeline
	doc      *model.Document
	arena    []pageOutcome
	pool     *ocr.Pool
	progress func(Progress)
	mu       sync.Mutex
}

// Run converts one document. The returned error is non-nil only for
// document-level failures (total content loss or an internal invariant
// violation); per-page errors are contained in the result.
func (p *Pipeline) Run(ctx context.Context, doc *model.Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	n := doc.PageCount()
	r := &run{
		p:     p,
		doc:   doc,
		arena: make([]pageOutcome, n),
		pool:  ocr.NewPool(p.config.MaxConcurrentPages, p.config.EngineFactory),
	}
	defer r.pool.Close()

	r.progress = func(Progress) {}
	if cb := p.config.OnProgress; cb != nil {
		r.progress = func(update Progress) {
			r.mu.Lock()
			cb(update)
			r.mu.Unlock()
		}
	}

	r.processPages(ctx)
	return r.assemble(ctx)
}

// processPages fans page work out to the worker pool and waits for all
// in-flight pages. On cancellation, pages not yet started stay pending;
// in-flight pages finish or time out.
func (r *run) processPages(ctx context.Context) {
	n := len(r.arena)
	workers := r.p.config.MaxConcurrentPages
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				r.arena[index] = r.processPage(ctx, r.doc.Pages[index])
			}
		}()
	}

dispatch:
	for index := 0; index < n; index++ {
		select {
		case jobs <- index:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
}

// processPage runs one page through classify, extract (native, OCR, or
// both), and normalize. Failures are contained in the returned outcome.
func (r *run) processPage(ctx context.Context, page *model.Page) pageOutcome {
	log := r.p.config.Logger

	if err := ctx.Err(); err != nil {
		return pageOutcome{state: model.StatePending}
	}

	// Classification, computed once per page within a run.
	class := page.Class
	if class == model.ClassUnknown {
		var err error
		class, err = r.p.classifier.Classify(page.Content)
		if err != nil {
			log.Warn("page unreadable", "page", page.Index, "error", err)
			return r.fail(page.Index, StageClassify, err)
		}
		page.Class = class
	}
	outcome := pageOutcome{state: model.StateClassified, class: class}
	r.progress(Progress{PageIndex: page.Index, State: model.StateClassified})

	if err := ctx.Err(); err != nil {
		return outcome
	}

	// Extraction.
	var results []model.ExtractionResult
	switch class {
	case model.ClassNativeText:
		res, err := extract.Native(page)
		if errors.Is(err, extract.ErrExtractionEmpty) {
			// Classifier/extractor disagreement: not fatal. Retry the
			// page as image-only within the same run.
			log.Warn("native extraction empty, retrying page as image-only", "page", page.Index)
			outcome.warnings = append(outcome.warnings, model.Warning{
				Code:      model.WarnClassifierMiss,
				Message:   "classified native-text but text layer was empty",
				PageIndex: page.Index,
			})
			res, err = r.recognizePage(ctx, page)
			if err != nil {
				if cancelled(ctx, err) {
					return outcome
				}
				return r.failWith(outcome, page.Index, StageOCR, err)
			}
			outcome.class = model.ClassImageOnly
			results = append(results, res)
			break
		}
		if err != nil {
			return r.failWith(outcome, page.Index, StageExtract, err)
		}
		results = append(results, res)

	case model.ClassImageOnly:
		res, err := r.recognizePage(ctx, page)
		if err != nil {
			if cancelled(ctx, err) {
				return outcome
			}
			outcome.ocrSkipped = true
			return r.failWith(outcome, page.Index, StageOCR, err)
		}
		results = append(results, res)

	case model.ClassMixed:
		native, err := extract.Native(page)
		if err == nil {
			results = append(results, native)
		}
		recognized, ocrErr := r.recognizePage(ctx, page)
		if ocrErr != nil {
			if cancelled(ctx, ocrErr) {
				return outcome
			}
			if len(results) == 0 {
				outcome.ocrSkipped = true
				return r.failWith(outcome, page.Index, StageOCR, ocrErr)
			}
			// Native text survived; record the skipped OCR half rather
			// than failing the page.
			log.Warn("ocr failed on mixed page, keeping native text", "page", page.Index, "error", ocrErr)
			outcome.ocrSkipped = true
			outcome.warnings = append(outcome.warnings, model.Warning{
				Code:      model.WarnOCRSkipped,
				Message:   fmt.Sprintf("ocr half of mixed page skipped: %v", ocrErr),
				PageIndex: page.Index,
			})
		} else {
			results = append(results, recognized)
		}
	}

	outcome.state = model.StateExtracted
	r.progress(Progress{PageIndex: page.Index, State: model.StateExtracted})

	if err := ctx.Err(); err != nil {
		return outcome
	}

	// Normalization: each extraction result separately, then segments
	// joined with their method tags preserved in outcome.methods.
	var segments []string
	for _, res := range results {
		normalized := r.p.normalizer.Normalize(res)
		if normalized.Text == "" {
			continue
		}
		segments = append(segments, normalized.Text)
		outcome.methods = appendMethod(outcome.methods, res.Method)
		outcome.warnings = append(outcome.warnings, res.Warnings...)
	}

	outcome.text = joinSegments(segments)
	outcome.state = model.StateNormalized
	r.progress(Progress{PageIndex: page.Index, State: model.StateNormalized})
	return outcome
}

// recognizePage preprocesses the page raster and runs OCR with the
// configured per-page timeout. The engine handle is returned to the pool
// only after the underlying call finishes, even on timeout.
func (r *run) recognizePage(ctx context.Context, page *model.Page) (model.ExtractionResult, error) {
	raster, err := page.Content.Raster()
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("reading raster: %w", err)
	}

	pre := r.p.pre.Process(raster)
	if len(pre.Applied) > 0 {
		r.p.config.Logger.Debug("preprocessed raster", "page", page.Index, "applied", pre.Applied)
	}

	engine, err := r.pool.Acquire(ctx)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.p.config.OCRTimeout)
	defer cancel()

	type recognition struct {
		result ocr.Result
		err    error
	}
	done := make(chan recognition, 1)
	go func() {
		result, rerr := engine.Recognize(callCtx, ocr.Input{Image: pre.Image, Language: r.p.config.OCRLanguage})
		// Release only after the call has fully returned so a timed-out
		// engine is never handed to another page mid-call.
		r.pool.Release(engine)
		done <- recognition{result: result, err: rerr}
	}()

	var rec recognition
	select {
	case rec = <-done:
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return model.ExtractionResult{}, ctx.Err()
		}
		return model.ExtractionResult{}, fmt.Errorf("%w after %s", ErrOCRTimeout, r.p.config.OCRTimeout)
	}
	if rec.err != nil {
		if ctx.Err() == nil && errors.Is(rec.err, context.DeadlineExceeded) {
			return model.ExtractionResult{}, fmt.Errorf("%w after %s", ErrOCRTimeout, r.p.config.OCRTimeout)
		}
		return model.ExtractionResult{}, rec.err
	}

	result := model.ExtractionResult{
		PageIndex:  page.Index,
		Text:       rec.result.Text,
		Method:     model.MethodOCR,
		Confidence: rec.result.Confidence,
	}
	if low := rec.result.LowConfidenceWords(r.p.config.OCRLowConfidence); len(low) > 0 {
		result.Warnings = append(result.Warnings, model.Warning{
			Code:      model.WarnLowConfidence,
			Message:   fmt.Sprintf("%d of %d words below confidence %.2f", len(low), len(rec.result.Words), r.p.config.OCRLowConfidence),
			PageIndex: page.Index,
		})
	}
	return result, nil
}

// fail records a page-level failure outcome.
func (r *run) fail(page int, stage Stage, err error) pageOutcome {
	return r.failWith(pageOutcome{}, page, stage, err)
}

// failWith marks an in-progress outcome as errored and reports progress.
func (r *run) failWith(outcome pageOutcome, page int, stage Stage, err error) pageOutcome {
	outcome.state = model.StateErrored
	outcome.err = &PageError{Page: page, Stage: stage, Err: err}
	r.progress(Progress{PageIndex: page, State: model.StateErrored, Err: outcome.err})
	return outcome
}

// cancelled reports whether err is the run context's own error, meaning
// the run was cancelled while this page was in flight. Such pages are left
// unfinished rather than recorded as failures.
func cancelled(ctx context.Context, err error) bool {
	cause := ctx.Err()
	return cause != nil && errors.Is(err, cause)
}

func appendMethod(methods []model.Method, m model.Method) []model.Method {
	for _, have := range methods {
		if have == m {
			return methods
		}
	}
	return append(methods, m)
}

// joinSegments concatenates extraction segments of one page with a
// paragraph break between them.
func joinSegments(segments []string) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	}
	out := segments[0]
	for _, s := range segments[1:] {
		out += "\n\n" + s
	}
	return out
}
