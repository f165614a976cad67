// Package model defines the core data types shared across the lectern
// pipeline: documents and their pages, per-page extraction results,
// normalized text, and the chunks that form the pipeline's terminal
// artifact.
//
// All types in this package are plain data. Documents are immutable once
// constructed; extraction results, normalized text, and chunks are produced
// once and never mutated afterwards.
package model
