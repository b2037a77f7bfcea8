// Package docx extracts page text from Office Open XML word documents.
//
// DOCX carries no fixed pagination, so pages are cut at explicit page breaks
// (w:br w:type="page") and at paragraph-level section breaks.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/source"
)

const documentPart = "word/document.xml"

// ErrNoDocumentPart signals an archive without word/document.xml.
var ErrNoDocumentPart = errors.New("docx: missing " + documentPart)

// Extractor reads DOCX text page by page.
type Extractor struct{}

// New creates a DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text of each page of the document at path.
func (e *Extractor) Extract(ctx context.Context, path string) (source.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return source.Document{}, fmt.Errorf("open docx: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return source.Document{}, fmt.Errorf("open %s: %w", documentPart, err)
		}
		pages, err := parsePages(ctx, rc)
		_ = rc.Close()
		if err != nil {
			return source.Document{}, err
		}
		return source.Document{Kind: source.DOCX, Pages: pages}, nil
	}
	return source.Document{}, ErrNoDocumentPart
}

// parsePages walks document.xml tokens. Text runs are concatenated, each
// paragraph ends with a newline, and every page is trimmed of leading and
// trailing blank lines.
func parsePages(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		pages   []string
		cur     strings.Builder
		inText  bool
		inPPr   bool
		pending bool // section break seen in the current paragraph properties
	)
	flush := func() {
		pages = append(pages, strings.Trim(cur.String(), "\n"))
		cur.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				if !inPPr {
					cur.WriteByte('\t')
				}
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					cur.WriteByte('\n')
				}
			case "pPr":
				inPPr = true
			case "sectPr":
				if inPPr {
					pending = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "pPr":
				inPPr = false
			case "p":
				cur.WriteByte('\n')
				if pending {
					pending = false
					flush()
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}

	// a break that ends the document does not open a trailing empty page
	if strings.Trim(cur.String(), "\n") != "" || len(pages) == 0 {
		flush()
	}
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
