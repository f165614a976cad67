package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/lectern/format"
	"github.com/tsawler/lectern/model"
)

// DOCX reads a Word (.docx) document. Paragraph text is extracted in body
// order, tables become pipe-joined rows, and explicit page breaks split
// the output into pages. A document without page breaks is one page.
func DOCX(path, name string) (*model.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s: word/document.xml not found", path)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document part: %w", err)
	}
	defer rc.Close()

	return parseDOCX(rc, name)
}

func parseDOCX(r io.Reader, name string) (*model.Document, error) {
	var doc wordDocumentXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing document XML: %w", err)
	}

	var pages []string
	var page []string
	flush := func() {
		text := strings.Join(page, "\n\n")
		page = nil
		if strings.TrimSpace(text) == "" {
			return
		}
		pages = append(pages, text)
	}

	for _, block := range doc.Body.Blocks {
		switch {
		case block.Paragraph != nil:
			text, pageBreak := block.Paragraph.text()
			if text != "" {
				page = append(page, text)
			}
			if pageBreak {
				flush()
			}
		case block.Table != nil:
			if text := block.Table.text(); text != "" {
				page = append(page, text)
			}
		}
	}
	flush()
	if len(pages) == 0 {
		pages = append(pages, "")
	}

	contents := make([]model.PageContent, 0, len(pages))
	for _, text := range pages {
		contents = append(contents, &model.TextContent{Text: text})
	}
	return model.NewDocument(name, format.DOCX, contents), nil
}

// wordDocumentXML mirrors the parts of word/document.xml the text
// extraction needs. Elements outside this subset are skipped.
type wordDocumentXML struct {
	XMLName xml.Name    `xml:"document"`
	Body    wordBodyXML `xml:"body"`
}

type wordBodyXML struct {
	Blocks []wordBlockXML
}

type wordBlockXML struct {
	Paragraph *wordParagraphXML
	Table     *wordTableXML
}

// UnmarshalXML walks the body children in order, so paragraphs and tables
// interleave the way they appear in the document.
func (b *wordBodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p wordParagraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Blocks = append(b.Blocks, wordBlockXML{Paragraph: &p})
			case "tbl":
				var tbl wordTableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Blocks = append(b.Blocks, wordBlockXML{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

type wordParagraphXML struct {
	Runs []wordRunXML `xml:"r"`
}

// text returns the paragraph text and whether the paragraph carries an
// explicit page break.
func (p *wordParagraphXML) text() (string, bool) {
	var b strings.Builder
	pageBreak := false
	for _, run := range p.Runs {
		for _, br := range run.Breaks {
			if br.Type == "page" {
				pageBreak = true
			}
		}
		for range run.Tabs {
			b.WriteByte('\t')
		}
		for _, t := range run.Text {
			b.WriteString(t.Value)
		}
	}
	return strings.TrimSpace(b.String()), pageBreak
}

type wordRunXML struct {
	Text   []wordTextXML  `xml:"t"`
	Tabs   []struct{}     `xml:"tab"`
	Breaks []wordBreakXML `xml:"br"`
}

type wordTextXML struct {
	Space string `xml:"space,attr"`
	Value string `xml:",chardata"`
}

type wordBreakXML struct {
	Type string `xml:"type,attr"`
}

type wordTableXML struct {
	Rows []wordRowXML `xml:"tr"`
}

// text renders the table as pipe-joined rows, one row per line.
func (t *wordTableXML) text() string {
	var rows []string
	for _, row := range t.Rows {
		var cells []string
		for _, cell := range row.Cells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if text, _ := p.text(); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}

type wordRowXML struct {
	Cells []wordCellXML `xml:"tc"`
}

type wordCellXML struct {
	Paragraphs []wordParagraphXML `xml:"p"`
}
