package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
	"github.com/tsawler/lectern/ocr"
)

// fakeEngine is a scripted OCR engine keyed on raster width, so a test can
// give each page a distinct image size and a distinct recognition outcome.
type fakeEngine struct {
	byWidth map[int]ocr.Result
	block   map[int]bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	width := in.Image.Bounds().Dx()
	if f.block[width] {
		<-ctx.Done()
		return ocr.Result{}, ctx.Err()
	}
	res, ok := f.byWidth[width]
	if !ok {
		return ocr.Result{}, fmt.Errorf("no scripted result for width %d", width)
	}
	return res, nil
}

func (f *fakeEngine) Close() error { return nil }

// rasterContent pairs a text layer with a raster, for pages that need both.
type rasterContent struct {
	text string
	img  image.Image
}

func (c *rasterContent) TextLayer() (string, error)   { return c.text, nil }
func (c *rasterContent) Raster() (image.Image, error) { return c.img, nil }
func (c *rasterContent) Bounds() (float64, float64)   { return model.LetterWidth, model.LetterHeight }

func whiteImage(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func fakeFactory(engine ocr.Engine) func() (ocr.Engine, error) {
	return func() (ocr.Engine, error) { return engine, nil }
}

func TestRunNativeOnly(t *testing.T) {
	doc := model.NewDocument("native.txt", format.TXT, []model.PageContent{
		&model.TextContent{Text: "First page of plain text with enough words to chunk."},
		&model.TextContent{Text: "Second page continues the running text of the document."},
	})

	p := New(Config{
		EngineFactory: func() (ocr.Engine, error) {
			t.Error("ocr engine requested for a native-only document")
			return nil, ocr.ErrEngineUnavailable
		},
	})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != model.RunCompleted {
		t.Errorf("state = %v; want %v", result.State, model.RunCompleted)
	}
	if len(result.Chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for _, c := range result.Chunks {
		for _, m := range c.Methods {
			if m != model.MethodNative {
				t.Errorf("chunk %d carries method %v", c.Seq, m)
			}
		}
	}
	if got := result.Summary; got.NativePages != 2 || got.TotalPages != 2 || got.ErroredPages != 0 {
		t.Errorf("summary = %+v", got)
	}
}

func TestRunThreePageDocument(t *testing.T) {
	// Page 0 carries a text layer, page 1 is a clean scan, page 2 is a
	// scan whose recognition never returns within the timeout.
	engine := &fakeEngine{
		byWidth: map[int]ocr.Result{
			20: {
				Text:       "Scanned page two text recovered by recognition.",
				Confidence: 0.92,
				Words: []ocr.Word{
					{Text: "Scanned", Confidence: 0.95},
					{Text: "page", Confidence: 0.89},
				},
			},
		},
		block: map[int]bool{30: true},
	}
	doc := model.NewDocument("mixed.pdf", format.PDF, []model.PageContent{
		&model.TextContent{Text: "The mitochondria is the powerhouse of the cell."},
		&model.ImageContent{Image: whiteImage(20)},
		&model.ImageContent{Image: whiteImage(30)},
	})

	p := New(Config{
		OCRTimeout:    50 * time.Millisecond,
		EngineFactory: fakeFactory(engine),
	})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.State != model.RunCompletedWithErrors {
		t.Errorf("state = %v; want %v", result.State, model.RunCompletedWithErrors)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v; want exactly one", result.Errors)
	}
	pageErr := result.Errors[0]
	if pageErr.Page != 2 || pageErr.Stage != StageOCR {
		t.Errorf("error = %v; want page 2 at ocr stage", pageErr)
	}
	if !errors.Is(pageErr, ErrOCRTimeout) {
		t.Errorf("error %v does not wrap ErrOCRTimeout", pageErr)
	}

	if len(result.Chunks) != 1 {
		t.Fatalf("chunks = %d; want 1", len(result.Chunks))
	}
	c := result.Chunks[0]
	if c.PageStart != 0 || c.PageEnd != 1 {
		t.Errorf("chunk spans pages %d-%d; want 0-1", c.PageStart, c.PageEnd)
	}
	if !strings.Contains(c.Text, "powerhouse of the cell") {
		t.Errorf("chunk missing native text: %q", c.Text)
	}
	if !strings.Contains(c.Text, "recovered by recognition") {
		t.Errorf("chunk missing ocr text: %q", c.Text)
	}
	if !hasMethod(c.Methods, model.MethodNative) || !hasMethod(c.Methods, model.MethodOCR) {
		t.Errorf("chunk methods = %v; want both native and ocr", c.Methods)
	}

	want := Summary{TotalPages: 3, NativePages: 1, OCRPages: 1, ErroredPages: 1, SkippedOCR: 1}
	if result.Summary != want {
		t.Errorf("summary = %+v; want %+v", result.Summary, want)
	}
}

func TestRunEngineUnavailable(t *testing.T) {
	unavailable := func() (ocr.Engine, error) { return nil, ocr.ErrEngineUnavailable }

	t.Run("all pages scanned", func(t *testing.T) {
		doc := model.NewDocument("scan.pdf", format.PDF, []model.PageContent{
			&model.ImageContent{Image: whiteImage(20)},
			&model.ImageContent{Image: whiteImage(20)},
		})
		p := New(Config{EngineFactory: unavailable})
		result, err := p.Run(context.Background(), doc)
		if !errors.Is(err, ErrNoContent) {
			t.Fatalf("err = %v; want ErrNoContent", err)
		}
		if !strings.Contains(err.Error(), "engine unavailable") {
			t.Errorf("err = %v; want mention of the unavailable engine", err)
		}
		if result.State != model.RunFailed {
			t.Errorf("state = %v; want %v", result.State, model.RunFailed)
		}
	})

	t.Run("native pages survive", func(t *testing.T) {
		doc := model.NewDocument("partial.pdf", format.PDF, []model.PageContent{
			&model.TextContent{Text: "Readable text layer on the first page."},
			&model.ImageContent{Image: whiteImage(20)},
		})
		p := New(Config{EngineFactory: unavailable})
		result, err := p.Run(context.Background(), doc)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.State != model.RunCompletedWithErrors {
			t.Errorf("state = %v; want %v", result.State, model.RunCompletedWithErrors)
		}
		if len(result.Chunks) != 1 || !strings.Contains(result.Chunks[0].Text, "Readable text layer") {
			t.Errorf("chunks = %v; want the native page text", result.Chunks)
		}
		if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ocr.ErrEngineUnavailable) {
			t.Errorf("errors = %v; want one wrapping ErrEngineUnavailable", result.Errors)
		}
	})
}

func TestRunLowConfidenceWarning(t *testing.T) {
	engine := &fakeEngine{
		byWidth: map[int]ocr.Result{
			20: {
				Text:       "blurry words here",
				Confidence: 0.55,
				Words: []ocr.Word{
					{Text: "blurry", Confidence: 0.40},
					{Text: "words", Confidence: 0.85},
					{Text: "here", Confidence: 0.30},
				},
			},
		},
	}
	doc := model.NewDocument("blurry.png", format.Image, []model.PageContent{
		&model.ImageContent{Image: whiteImage(20)},
	})
	p := New(Config{EngineFactory: fakeFactory(engine)})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == model.WarnLowConfidence && w.PageIndex == 0 {
			found = true
			if !strings.Contains(w.Message, "2 of 3") {
				t.Errorf("warning message = %q; want word counts", w.Message)
			}
		}
	}
	if !found {
		t.Errorf("warnings = %v; want a low-confidence warning", result.Warnings)
	}
}

func TestRunClassifierMissRetriesAsImage(t *testing.T) {
	engine := &fakeEngine{
		byWidth: map[int]ocr.Result{
			20: {Text: "Recovered from the raster after the empty text layer.", Confidence: 0.9},
		},
	}
	doc := model.NewDocument("miss.pdf", format.PDF, []model.PageContent{
		&rasterContent{text: "   \n\t  ", img: whiteImage(20)},
	})
	// Pre-assigned classifications are reused, not recomputed.
	doc.Pages[0].Class = model.ClassNativeText

	p := New(Config{EngineFactory: fakeFactory(engine)})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != model.RunCompleted {
		t.Fatalf("state = %v; want %v", result.State, model.RunCompleted)
	}
	if len(result.Chunks) != 1 || !strings.Contains(result.Chunks[0].Text, "Recovered from the raster") {
		t.Fatalf("chunks = %v; want the ocr fallback text", result.Chunks)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == model.WarnClassifierMiss && w.PageIndex == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v; want a classifier-disagreement warning", result.Warnings)
	}
	if result.Summary.OCRPages != 1 || result.Summary.NativePages != 0 {
		t.Errorf("summary = %+v; want the page counted as ocr", result.Summary)
	}
}

func TestRunMixedPage(t *testing.T) {
	native := strings.Repeat("A caption and a paragraph of selectable text. ", 5)
	engine := &fakeEngine{
		byWidth: map[int]ocr.Result{
			20: {Text: "Text recognized inside the embedded figure.", Confidence: 0.9},
		},
	}
	doc := model.NewDocument("mixed.pdf", format.PDF, []model.PageContent{
		&rasterContent{text: native, img: whiteImage(20)},
	})
	p := New(Config{EngineFactory: fakeFactory(engine)})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.MixedPages != 1 {
		t.Fatalf("summary = %+v; want one mixed page", result.Summary)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("chunks = %d; want 1", len(result.Chunks))
	}
	c := result.Chunks[0]
	if !strings.Contains(c.Text, "selectable text") || !strings.Contains(c.Text, "embedded figure") {
		t.Errorf("chunk missing one half of a mixed page: %q", c.Text)
	}
	if !hasMethod(c.Methods, model.MethodNative) || !hasMethod(c.Methods, model.MethodOCR) {
		t.Errorf("methods = %v; want both", c.Methods)
	}
}

func TestRunDeterministic(t *testing.T) {
	contents := make([]model.PageContent, 6)
	for i := range contents {
		contents[i] = &model.TextContent{
			Text: strings.Repeat(fmt.Sprintf("Sentence %d of a repetitive page. ", i), 20),
		}
	}
	config := Config{MaxConcurrentPages: 3}

	first, err := New(config).Run(context.Background(), model.NewDocument("a.txt", format.TXT, contents))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := New(config).Run(context.Background(), model.NewDocument("a.txt", format.TXT, contents))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Chunks) != len(second.Chunks) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first.Chunks), len(second.Chunks))
	}
	for i := range first.Chunks {
		a, b := first.Chunks[i], second.Chunks[i]
		if a.Text != b.Text || a.PageStart != b.PageStart || a.PageEnd != b.PageEnd || a.Reason != b.Reason {
			t.Errorf("chunk %d differs between identical runs", i)
		}
	}
}

func TestRunStripRepeatedLines(t *testing.T) {
	contents := make([]model.PageContent, 3)
	for i := range contents {
		contents[i] = &model.TextContent{
			Text: fmt.Sprintf("ACME Quarterly Report\n\nBody paragraph %d with distinct content on every page.", i),
		}
	}
	doc := model.NewDocument("report.pdf", format.PDF, contents)
	p := New(Config{StripRepeatedLines: true})
	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	flagged := false
	for _, w := range result.Warnings {
		if w.Code == model.WarnRepeatedLine {
			flagged = true
		}
	}
	if !flagged {
		t.Errorf("warnings = %v; want the repeated header flagged", result.Warnings)
	}
	for _, c := range result.Chunks {
		if strings.Contains(c.Text, "ACME Quarterly Report") {
			t.Errorf("chunk still contains the stripped header: %q", c.Text)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := model.NewDocument("doc.txt", format.TXT, []model.PageContent{
		&model.TextContent{Text: "Page one text."},
		&model.TextContent{Text: "Page two text."},
	})
	result, err := New(Config{}).Run(ctx, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != model.RunCancelled {
		t.Errorf("state = %v; want %v", result.State, model.RunCancelled)
	}
	if len(result.Chunks) != 0 {
		t.Errorf("chunks = %v; want none for a run cancelled before any page finished", result.Chunks)
	}
}

// cancellingEngine cancels the run from inside recognition and then waits
// for the context, as a hung engine would when the caller gives up.
type cancellingEngine struct {
	cancel context.CancelFunc
}

func (e *cancellingEngine) Name() string { return "cancelling" }

func (e *cancellingEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	e.cancel()
	<-ctx.Done()
	return ocr.Result{}, ctx.Err()
}

func (e *cancellingEngine) Close() error { return nil }

func TestRunCancelledMidOCR(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &cancellingEngine{cancel: cancel}

	doc := model.NewDocument("doc.pdf", format.PDF, []model.PageContent{
		&model.TextContent{Text: "Native page finished before the cancellation."},
		&model.ImageContent{Image: whiteImage(20)},
	})
	p := New(Config{
		MaxConcurrentPages: 1,
		EngineFactory:      fakeFactory(engine),
	})
	result, err := p.Run(ctx, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != model.RunCancelled {
		t.Errorf("state = %v; want %v", result.State, model.RunCancelled)
	}
	// A page interrupted by run cancellation is unfinished, not failed.
	if len(result.Errors) != 0 || result.Summary.ErroredPages != 0 {
		t.Errorf("cancelled run recorded page errors: %v", result.Errors)
	}
	if len(result.Chunks) != 1 || !strings.Contains(result.Chunks[0].Text, "finished before the cancellation") {
		t.Errorf("chunks = %v; want only the finished page", result.Chunks)
	}
}

func TestRunProgressOrder(t *testing.T) {
	var states []model.PageState
	p := New(Config{
		OnProgress: func(u Progress) {
			if u.PageIndex == 0 {
				states = append(states, u.State)
			}
		},
	})
	doc := model.NewDocument("one.txt", format.TXT, []model.PageContent{
		&model.TextContent{Text: "A single page."},
	})
	if _, err := p.Run(context.Background(), doc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []model.PageState{model.StateClassified, model.StateExtracted, model.StateNormalized, model.StateChunked}
	if len(states) != len(want) {
		t.Fatalf("states = %v; want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v; want %v", states, want)
		}
	}
}

func hasMethod(methods []model.Method, m model.Method) bool {
	for _, have := range methods {
		if have == m {
			return true
		}
	}
	return false
}
