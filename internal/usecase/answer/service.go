// Package answer runs the retrieval-augmented query pipeline over one module.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/module"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// topK is the number of chunks handed to the generator.
const topK = 1

// Answer is the generated response and the chunk it was grounded on.
type Answer struct {
	Text   string
	Source chunk.Chunk
	Score  float64
}

// Service answers questions over a module's chunks.
type Service struct {
	chunks    ChunkLoader
	embed     Embedder
	generator Generator
	logger    *zap.Logger
}

// New creates an answer service.
func New(chunks ChunkLoader, embed Embedder, generator Generator, logger *zap.Logger) *Service {
	return &Service{chunks: chunks, embed: embed, generator: generator, logger: logger}
}

// Answer loads the module's chunks, builds an ephemeral index, retrieves the
// nearest chunk to the question and generates an answer grounded on it.
func (s *Service) Answer(ctx context.Context, moduleName, question string) (ans Answer, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.QueryDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	name, err := module.New(moduleName)
	if err != nil {
		return Answer{}, err
	}

	chunks, err := s.chunks.LoadAll(ctx, name.String())
	if err != nil {
		return Answer{}, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return Answer{}, fmt.Errorf("%w: %s", domain.ErrEmptyModule, name.String())
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text()
	}
	vectors, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return Answer{}, providerError("embed chunks", err)
	}
	metrics.QueryChunksEmbedded.Observe(float64(len(chunks)))

	idx, err := index.Build(chunks, vectors.Embeddings)
	if err != nil {
		return Answer{}, providerError("build index", err)
	}

	q, err := s.embed.Embed(ctx, question)
	if err != nil {
		return Answer{}, providerError("embed question", err)
	}

	hits, err := idx.Search(q.Embedding, topK)
	if err != nil {
		return Answer{}, providerError("search index", err)
	}
	best := hits[0]

	gen, err := s.generator.Generate(ctx, domain.GenerationRequest{
		Question: question,
		Context:  best.Chunk.Text(),
	})
	if err != nil {
		return Answer{}, providerError("generate", err)
	}

	s.logger.Debug("Question answered",
		zap.String("module", name.String()),
		zap.Int("chunks", len(chunks)),
		zap.Int("page", best.Chunk.Page()),
		zap.Int("seq", best.Chunk.Seq()),
		zap.Float64("score", best.Score),
		zap.Duration("duration", time.Since(start)),
	)
	return Answer{Text: gen.Text, Source: best.Chunk, Score: best.Score}, nil
}

// providerError tags a failure of the embedding or generation stage as a
// generation failure, keeping rate limits and cancellation distinguishable.
func providerError(stage string, err error) error {
	if errors.Is(err, domain.ErrGenerationFailed) || errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, domain.ErrGenerationFailed, err)
}
