package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// TXT reads a plain-text file. Form feed characters mark page boundaries;
// a file without form feeds becomes a single page.
func TXT(path, name string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return TXTBytes(data, name), nil
}

// TXTBytes builds a plain-text document from in-memory content.
func TXTBytes(data []byte, name string) *model.Document {
	parts := strings.Split(string(data), "\f")
	contents := make([]model.PageContent, 0, len(parts))
	for _, part := range parts {
		contents = append(contents, &model.TextContent{Text: part})
	}
	return model.NewDocument(name, format.TXT, contents)
}
