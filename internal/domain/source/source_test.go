package source

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"report.pdf", PDF, false},
		{"REPORT.PDF", PDF, false},
		{"notes.docx", DOCX, false},
		{"archive.tar.docx", DOCX, false},
		{"notes.txt", "", true},
		{"notes.doc", "", true},
		{"README", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromFilename(tc.name)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrUnsupportedFileType) {
					t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("FromFilename(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestDocument_TextLen(t *testing.T) {
	d := Document{Pages: []string{"abc", "héllo"}}
	if d.TextLen() != 8 {
		t.Errorf("TextLen() = %d, want 8", d.TextLen())
	}
}
