// Package ingest turns files on disk into model.Document values ready for
// conversion. Each supported format gets its own adapter producing pages
// whose content handles expose a text layer, a raster, or both; the
// conversion pipeline never needs to know which format a page came from.
package ingest
