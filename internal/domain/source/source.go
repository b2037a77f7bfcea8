// Package source names the upload formats the ingestion pipeline can read.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Kind is a supported document format.
type Kind string

const (
	// PDF is a Portable Document Format file.
	PDF Kind = "pdf"
	// DOCX is an Office Open XML word processing file.
	DOCX Kind = "docx"
)

// Kinds lists every supported format.
func Kinds() []Kind { return []Kind{PDF, DOCX} }

// FromFilename detects the kind from the file extension (case-insensitive).
func FromFilename(name string) (Kind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch Kind(ext) {
	case PDF:
		return PDF, nil
	case DOCX:
		return DOCX, nil
	default:
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFileType, name)
		}
		return "", fmt.Errorf("%w: .%s", domain.ErrUnsupportedFileType, ext)
	}
}

// Document is the extracted text of one upload, split into pages.
type Document struct {
	Kind  Kind
	Pages []string
}

// TextLen returns the total number of characters across all pages.
func (d Document) TextLen() int {
	n := 0
	for _, p := range d.Pages {
		n += len([]rune(p))
	}
	return n
}
