package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

// formMemory is the multipart memory budget; larger parts spill to disk.
const formMemory = 8 << 20

// uploadField is the multipart field carrying the documents.
const uploadField = "files"

// readUpload parses a multipart upload, copies every file part to a temp file
// and returns the ingestion request. cleanup removes whatever is left behind
// and is always safe to call.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (ingestuc.Upload, func(), error) {
	var temps []string
	cleanup := func() {
		for _, p := range temps {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.log(r).Warn("Failed to remove upload temp file", zap.String("path", p), zap.Error(err))
			}
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return ingestuc.Upload{}, cleanup, formError(err)
	}

	var data UploadData
	if raw := r.FormValue("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return ingestuc.Upload{}, cleanup, fmt.Errorf("%w: invalid data field: %w", domain.ErrValidation, err)
		}
	}

	headers := r.MultipartForm.File[uploadField]
	if len(headers) > s.limits.MaxFiles {
		return ingestuc.Upload{}, cleanup, fmt.Errorf("%w: too many files (max %d)",
			domain.ErrValidation, s.limits.MaxFiles)
	}

	upload := ingestuc.Upload{ModuleName: data.ModuleName}
	for _, fh := range headers {
		path, err := s.spool(fh)
		if err != nil {
			return ingestuc.Upload{}, cleanup, err
		}
		temps = append(temps, path)
		upload.Files = append(upload.Files, ingestuc.File{Filename: fh.Filename, Path: path})
	}
	return upload, cleanup, nil
}

// spool copies one multipart file part into a temp file and returns its path.
func (s *Server) spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload part: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.CreateTemp(s.limits.TempDir, "docqa-upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("spool upload: %w", err)
	}
	return dst.Name(), nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errPayloadTooLarge
	}
	return fmt.Errorf("%w: invalid multipart form: %w", domain.ErrValidation, err)
}
