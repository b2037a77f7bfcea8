package ingest

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/source"
)

// ChunkStore opens staged replacements of a module's chunk set.
type ChunkStore interface {
	Stage(ctx context.Context, module string) (chunk.Staging, error)
}

// Extractor reads page texts from a stored upload. filename selects the format.
type Extractor interface {
	Extract(ctx context.Context, filename, path string) (source.Document, error)
}
