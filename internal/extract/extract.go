// Package extract turns uploaded files into per-page text.
package extract

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/source"
)

// Extractor reads the text of one document format, one entry per page.
type Extractor interface {
	Extract(ctx context.Context, path string) (source.Document, error)
}

// Registry dispatches extraction by source kind.
type Registry struct {
	extractors map[source.Kind]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[source.Kind]Extractor)}
}

// Register binds an extractor to a kind, replacing any previous binding.
func (r *Registry) Register(kind source.Kind, e Extractor) {
	r.extractors[kind] = e
}

// Extract detects the kind of filename and extracts path with the bound extractor.
// filename is the client-supplied name; path is where the bytes live.
func (r *Registry) Extract(ctx context.Context, filename, path string) (source.Document, error) {
	kind, err := source.FromFilename(filename)
	if err != nil {
		return source.Document{}, err
	}
	e, ok := r.extractors[kind]
	if !ok {
		return source.Document{}, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedFileType, kind)
	}

	doc, err := e.Extract(ctx, path)
	if err != nil {
		return source.Document{}, &domain.ExtractionError{Kind: string(kind), Err: err}
	}
	doc.Kind = kind
	return doc, nil
}

// Supports reports whether a filename maps to a registered extractor.
func (r *Registry) Supports(filename string) bool {
	kind, err := source.FromFilename(filename)
	if err != nil {
		return false
	}
	_, ok := r.extractors[kind]
	return ok
}
