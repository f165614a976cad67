package lectern

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/lectern/chunk"
	"github.com/tsawler/lectern/classify"
	"github.com/tsawler/lectern/ocr"
	"github.com/tsawler/lectern/pipeline"
	"github.com/tsawler/lectern/preprocess"
)

// Options holds the conversion configuration. The boolean toggles are
// phrased so the zero value gives sensible behavior; DefaultOptions or
// LoadOptions fill the rest.
type Options struct {
	// Chunk sizing, in characters.
	MaxChunkSize     int `yaml:"max_chunk_size"`
	MinChunkSize     int `yaml:"min_chunk_size"`
	BoundaryLookback int `yaml:"boundary_lookback"`

	// OCR behavior.
	OCRLanguage        string        `yaml:"ocr_language"`
	OCRLowConfidence   float64       `yaml:"ocr_low_confidence"`
	OCRTimeout         time.Duration `yaml:"ocr_timeout"`
	MaxConcurrentPages int           `yaml:"max_concurrent_pages"`

	// Raster cleanup ahead of OCR. All stages run unless disabled.
	DisableDeskew   bool `yaml:"disable_deskew"`
	DisableDenoise  bool `yaml:"disable_denoise"`
	DisableBinarize bool `yaml:"disable_binarize"`

	// Page classification thresholds.
	NativeTextDensityThreshold     float64 `yaml:"native_text_density_threshold"`
	MixedPageTextCoverageThreshold float64 `yaml:"mixed_page_text_coverage_threshold"`

	// StripRepeatedLines removes suspected running headers and footers.
	// They are always flagged in warnings; removal is opt-in.
	StripRepeatedLines bool `yaml:"strip_repeated_lines"`

	// Runtime hooks, not loadable from YAML.
	Engine     func() (ocr.Engine, error) `yaml:"-"`
	OnProgress func(pipeline.Progress)    `yaml:"-"`
	Logger     *slog.Logger               `yaml:"-"`
}

// DefaultOptions returns the standard conversion options.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize:       2000,
		MinChunkSize:       100,
		BoundaryLookback:   200,
		OCRLanguage:        "eng",
		OCRLowConfidence:   0.60,
		OCRTimeout:         30 * time.Second,
		MaxConcurrentPages: 4,
	}
}

// LoadOptions reads options from a YAML file, overlaying the defaults.
// Fields absent from the file keep their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file %s: %w", path, err)
	}
	return opts, nil
}

// clone creates a copy of the options. Function-valued fields are shared.
func (o Options) clone() Options {
	return o
}

// pipelineConfig maps the options onto the pipeline configuration.
func (o Options) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Classify: classify.Config{
			NativeTextDensityThreshold:     o.NativeTextDensityThreshold,
			MixedPageTextCoverageThreshold: o.MixedPageTextCoverageThreshold,
		},
		Preprocess: preprocess.Config{
			Deskew:   !o.DisableDeskew,
			Denoise:  !o.DisableDenoise,
			Binarize: !o.DisableBinarize,
		},
		Chunk: chunk.Config{
			MaxChunkSize:     o.MaxChunkSize,
			MinChunkSize:     o.MinChunkSize,
			BoundaryLookback: o.BoundaryLookback,
		},
		OCRLanguage:        o.OCRLanguage,
		OCRLowConfidence:   o.OCRLowConfidence,
		OCRTimeout:         o.OCRTimeout,
		MaxConcurrentPages: o.MaxConcurrentPages,
		StripRepeatedLines: o.StripRepeatedLines,
		EngineFactory:      o.Engine,
		OnProgress:         o.OnProgress,
		Logger:             o.Logger,
	}
}

// WithOptions replaces the accumulated options wholesale.
func (c *Converter) WithOptions(opts Options) *Converter {
	next := c.clone()
	next.options = opts.clone()
	return next
}

// MaxChunkSize sets the hard upper bound on chunk size, in characters.
func (c *Converter) MaxChunkSize(n int) *Converter {
	next := c.clone()
	next.options.MaxChunkSize = n
	return next
}

// MinChunkSize sets the soft lower bound on chunk size, in characters.
func (c *Converter) MinChunkSize(n int) *Converter {
	next := c.clone()
	next.options.MinChunkSize = n
	return next
}

// Language sets the OCR language hint, e.g. "eng" or "eng+deu".
func (c *Converter) Language(lang string) *Converter {
	next := c.clone()
	next.options.OCRLanguage = lang
	return next
}

// OCRTimeout bounds each per-page OCR call.
func (c *Converter) OCRTimeout(d time.Duration) *Converter {
	next := c.clone()
	next.options.OCRTimeout = d
	return next
}

// Concurrency bounds the number of pages processed at once.
func (c *Converter) Concurrency(n int) *Converter {
	next := c.clone()
	next.options.MaxConcurrentPages = n
	return next
}

// StripRepeatedLines removes suspected running headers and footers that
// repeat verbatim across pages.
func (c *Converter) StripRepeatedLines() *Converter {
	next := c.clone()
	next.options.StripRepeatedLines = true
	return next
}

// NoPreprocess disables all raster cleanup ahead of OCR.
func (c *Converter) NoPreprocess() *Converter {
	next := c.clone()
	next.options.DisableDeskew = true
	next.options.DisableDenoise = true
	next.options.DisableBinarize = true
	return next
}

// WithEngine substitutes the OCR engine factory.
func (c *Converter) WithEngine(factory func() (ocr.Engine, error)) *Converter {
	next := c.clone()
	next.options.Engine = factory
	return next
}

// WithLogger routes pipeline logging to the given logger.
func (c *Converter) WithLogger(logger *slog.Logger) *Converter {
	next := c.clone()
	next.options.Logger = logger
	return next
}

// OnProgress registers a per-page progress callback.
func (c *Converter) OnProgress(fn func(pipeline.Progress)) *Converter {
	next := c.clone()
	next.options.OnProgress = fn
	return next
}
