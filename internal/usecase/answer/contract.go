package answer

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
)

// ChunkLoader reads the committed chunk set of a module.
type ChunkLoader interface {
	LoadAll(ctx context.Context, module string) ([]chunk.Chunk, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator answers a question from grounding context.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
