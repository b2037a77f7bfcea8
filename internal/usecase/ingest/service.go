// Package ingest turns an uploaded document into a module's persisted chunk set.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/module"
	"github.com/kailas-cloud/docqa/internal/domain/source"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// File is one uploaded file as received by the transport.
type File struct {
	// Filename is the client-supplied name; its extension selects the format.
	Filename string
	// Path is where the transport stored the bytes.
	Path string
}

// Upload is one ingestion request.
type Upload struct {
	Files      []File
	ModuleName string
}

// Result describes the committed chunk set.
type Result struct {
	ModuleName     string
	ChunkFilePaths []string
	Pages          int
	Chunks         int
}

// Service runs the ingestion pipeline.
type Service struct {
	store      ChunkStore
	extractor  Extractor
	uploadsDir string
	params     chunk.Params
	logger     *zap.Logger
}

// New creates an ingestion service. Uploads are relocated under uploadsDir.
func New(store ChunkStore, extractor Extractor, uploadsDir string, params chunk.Params, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		extractor:  extractor,
		uploadsDir: uploadsDir,
		params:     params,
		logger:     logger,
	}
}

// Ingest processes the first uploaded file: validate, relocate, extract, split
// each page and replace the module's chunk set atomically. On failure the
// previous chunk set is left untouched.
func (s *Service) Ingest(ctx context.Context, u Upload) (Result, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if len(u.Files) == 0 {
		return Result{}, domain.ErrNoFileUploaded
	}
	if err := s.params.Validate(); err != nil {
		return Result{}, err
	}

	name, err := module.OrDefault(u.ModuleName)
	if err != nil {
		return Result{}, err
	}

	file := u.Files[0]
	if len(u.Files) > 1 {
		s.logger.Info("Extra uploaded files ignored",
			zap.String("module", name.String()),
			zap.Int("ignored", len(u.Files)-1),
		)
	}

	kind, err := source.FromFilename(file.Filename)
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues("unknown", "skipped").Inc()
		return Result{}, err
	}

	stored, err := s.relocate(file.Path, name.String())
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues(string(kind), "error").Inc()
		return Result{}, err
	}

	doc, err := s.extractor.Extract(ctx, file.Filename, stored)
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues(string(kind), "error").Inc()
		return Result{}, fmt.Errorf("extract %s: %w", file.Filename, err)
	}

	res, err := s.persist(ctx, name.String(), doc)
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues(string(kind), "error").Inc()
		return Result{}, err
	}

	metrics.IngestFilesTotal.WithLabelValues(string(kind), "ok").Inc()
	metrics.IngestChunksTotal.Add(float64(res.Chunks))

	s.logger.Info("Document ingested",
		zap.String("module", res.ModuleName),
		zap.String("kind", string(kind)),
		zap.Int("pages", res.Pages),
		zap.Int("chunks", res.Chunks),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// persist splits every page uniformly and stages one group per non-empty page.
func (s *Service) persist(ctx context.Context, name string, doc source.Document) (res Result, err error) {
	staging, err := s.store.Stage(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("stage module %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			if abortErr := staging.Abort(); abortErr != nil {
				s.logger.Warn("Failed to abort staging", zap.String("module", name), zap.Error(abortErr))
			}
		}
	}()

	total := 0
	for page, text := range doc.Pages {
		group, err := chunk.ForPage(name, page, text, s.params)
		if err != nil {
			return Result{}, err
		}
		if len(group) == 0 {
			continue
		}
		if err := staging.Save(ctx, page, group); err != nil {
			return Result{}, fmt.Errorf("save page %d: %w", page, err)
		}
		total += len(group)
	}

	paths, err := staging.Commit(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("commit module %s: %w", name, err)
	}

	return Result{
		ModuleName:     name,
		ChunkFilePaths: paths,
		Pages:          len(doc.Pages),
		Chunks:         total,
	}, nil
}

// relocate moves the uploaded temp file to <uploadsDir>/<module>, replacing any
// previous upload of the module. Falls back to copy when rename crosses devices.
func (s *Service) relocate(src, name string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrUploadArtifactMissing, filepath.Base(src))
		}
		return "", fmt.Errorf("stat upload: %w", err)
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	dst := filepath.Join(s.uploadsDir, name)

	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("relocate upload: %w", err)
	}
	if err := os.Remove(src); err != nil {
		s.logger.Warn("Failed to remove upload temp file", zap.String("path", src), zap.Error(err))
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
