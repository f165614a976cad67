package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// blockElements start a new paragraph in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true,
	"header": true, "footer": true, "br": true,
}

// skipElements contribute no document text.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

// HTML reads an HTML file as a single-page text document containing the
// body text, one paragraph per block element.
func HTML(path, name string) (*model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return HTMLReader(f, name)
}

// HTMLReader parses HTML from a stream.
func HTMLReader(r io.Reader, name string) (*model.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	body := findElement(root, "body")
	if body == nil {
		body = root
	}

	var b strings.Builder
	collectText(body, &b)
	text := strings.TrimSpace(b.String())

	return model.NewDocument(name, format.HTML, []model.PageContent{
		&model.TextContent{Text: text},
	}), nil
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// collectText walks the DOM accumulating text, with paragraph breaks at
// block element boundaries.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skipElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] && b.Len() > 0 {
		if !strings.HasSuffix(b.String(), "\n\n") {
			b.WriteString("\n\n")
		}
	}
}
