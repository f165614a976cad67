package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsawler/lectern/chunk"
	"github.com/tsawler/lectern/model"
	"github.com/tsawler/lectern/normalize"
	"github.com/tsawler/lectern/ocr"
)

// assemble walks the page arena in order and produces the terminal result.
// On a cancelled run only the contiguous prefix of finished pages is
// chunked, so emitted chunks are always complete and never reordered.
func (r *run) assemble(ctx context.Context) (*Result, error) {
	cancelled := ctx.Err() != nil
	log := r.p.config.Logger

	result := &Result{Summary: Summary{TotalPages: len(r.arena)}}

	// Pages eligible for chunking. On cancellation, stop at the first
	// unfinished page; everything after it is discarded even if done.
	usable := len(r.arena)
	if cancelled {
		usable = 0
		for i := range r.arena {
			if !r.arena[i].state.Terminal() && r.arena[i].state != model.StateNormalized {
				break
			}
			usable = i + 1
		}
	}

	var normalized []model.NormalizedText
	var texts []chunk.PageText
	engineDown := false
	for i := range r.arena {
		outcome := &r.arena[i]
		if outcome.err != nil {
			result.Errors = append(result.Errors, outcome.err)
			result.Summary.ErroredPages++
			if errors.Is(outcome.err.Err, ocr.ErrEngineUnavailable) {
				engineDown = true
			}
		}
		if outcome.ocrSkipped {
			result.Summary.SkippedOCR++
		}
		result.Warnings = append(result.Warnings, outcome.warnings...)

		if outcome.state != model.StateNormalized || i >= usable {
			continue
		}
		switch outcome.class {
		case model.ClassNativeText:
			result.Summary.NativePages++
		case model.ClassImageOnly:
			result.Summary.OCRPages++
		case model.ClassMixed:
			result.Summary.MixedPages++
		}
		normalized = append(normalized, model.NormalizedText{PageIndex: i, Text: outcome.text})
		texts = append(texts, chunk.PageText{PageIndex: i, Text: outcome.text, Methods: outcome.methods})
	}

	// Boilerplate repeated across page boundaries is flagged on every run
	// and stripped only when asked for.
	result.Warnings = append(result.Warnings, normalize.FlagRepeatedLines(normalized)...)
	if r.p.config.StripRepeatedLines {
		stripped := normalize.StripRepeatedLines(normalized)
		for i := range stripped {
			texts[i].Text = stripped[i].Text
		}
	}

	chunks, err := r.p.chunker.Chunk(texts)
	if err != nil {
		result.State = model.RunFailed
		return result, fmt.Errorf("chunking: %w", err)
	}
	result.Chunks = chunks

	for i := range r.arena {
		if r.arena[i].state == model.StateNormalized && i < usable {
			r.arena[i].state = model.StateChunked
			r.progress(Progress{PageIndex: i, State: model.StateChunked})
		}
	}

	switch {
	case cancelled:
		result.State = model.RunCancelled
		log.Info("run cancelled", "pages", usable, "chunks", len(result.Chunks))
	case len(result.Chunks) == 0 && result.Summary.ErroredPages > 0:
		result.State = model.RunFailed
		if engineDown {
			return result, fmt.Errorf("%w: ocr engine unavailable and no page had a usable text layer", ErrNoContent)
		}
		return result, fmt.Errorf("%w: every page failed", ErrNoContent)
	case result.Summary.ErroredPages > 0:
		result.State = model.RunCompletedWithErrors
		log.Info("run completed with errors", "chunks", len(result.Chunks), "errored", result.Summary.ErroredPages)
	default:
		result.State = model.RunCompleted
		log.Info("run completed", "chunks", len(result.Chunks))
	}
	return result, nil
}
