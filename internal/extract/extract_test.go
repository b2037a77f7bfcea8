package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/source"
)

type fakeExtractor struct {
	pages []string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (source.Document, error) {
	f.calls++
	if f.err != nil {
		return source.Document{}, f.err
	}
	return source.Document{Pages: f.pages}, nil
}

func TestRegistry_Dispatch(t *testing.T) {
	pdf := &fakeExtractor{pages: []string{"p"}}
	docx := &fakeExtractor{pages: []string{"d1", "d2"}}
	r := NewRegistry()
	r.Register(source.PDF, pdf)
	r.Register(source.DOCX, docx)

	doc, err := r.Extract(context.Background(), "Notes.DOCX", "/tmp/x")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Kind != source.DOCX || len(doc.Pages) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if pdf.calls != 0 || docx.calls != 1 {
		t.Fatalf("calls pdf=%d docx=%d", pdf.calls, docx.calls)
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(source.PDF, &fakeExtractor{})

	tests := []string{"notes.txt", "README", "slides.pptx", "scan.docx"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Extract(context.Background(), name, "/tmp/x")
			if !errors.Is(err, domain.ErrUnsupportedFileType) {
				t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
			}
			if r.Supports(name) {
				t.Fatal("Supports should be false")
			}
		})
	}
}

func TestRegistry_ExtractionError(t *testing.T) {
	cause := errors.New("broken xref")
	r := NewRegistry()
	r.Register(source.PDF, &fakeExtractor{err: cause})

	_, err := r.Extract(context.Background(), "a.pdf", "/tmp/a")
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if extErr.Kind != "pdf" || !errors.Is(err, cause) {
		t.Fatalf("unexpected error %v", err)
	}
}
