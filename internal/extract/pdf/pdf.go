// Package pdf extracts page text from PDF files.
package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/docqa/internal/domain/source"
)

// Extractor reads PDF text page by page.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns one entry per PDF page. Pages without a content stream yield "".
func (e *Extractor) Extract(ctx context.Context, path string) (doc source.Document, err error) {
	// The parser panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return source.Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return source.Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return source.Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return source.Document{Kind: source.PDF, Pages: pages}, nil
}
