// Package embedding holds embedder decorators shared by ingestion-time and query-time callers.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// DefaultMaxAPIBatchSize is the maximum number of inputs per provider request.
const DefaultMaxAPIBatchSize = 256

// DefaultParallelism is the number of sub-batches in flight at once.
const DefaultParallelism = 4

// Options tunes request fan-out.
type Options struct {
	BatchSize   int
	Parallelism int
}

// InstrumentedEmbedder wraps an Embedder with sub-batching, logging and
// per-request usage accounting. Transport metrics (requests, duration, tokens)
// are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner       domain.Embedder
	provider    string
	model       string
	batchSize   int
	parallelism int
	logger      *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with batching and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	opts Options, logger *zap.Logger,
) *InstrumentedEmbedder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultMaxAPIBatchSize
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	return &InstrumentedEmbedder{
		inner:       inner,
		provider:    provider,
		model:       model,
		batchSize:   opts.BatchSize,
		parallelism: opts.Parallelism,
		logger:      logger,
	}
}

// Embed delegates to the inner embedder and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into sub-batches of at most batchSize and embeds
// up to parallelism of them concurrently. Output order matches input order.
// The first failure cancels the remaining sub-batches.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	n := (len(texts) + p.batchSize - 1) / p.batchSize
	parts := make([]domain.BatchEmbeddingResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := 0; i < n; i++ {
		offset := i * p.batchSize
		end := min(offset+p.batchSize, len(texts))
		g.Go(func() error {
			res, err := domain.EmbedAll(gctx, p.inner, texts[offset:end])
			if err != nil {
				p.logger.Error("Batch embedding request failed",
					zap.String("provider", p.provider),
					zap.String("model", p.model),
					zap.Int("chunk_offset", offset),
					zap.Int("chunk_size", end-offset),
					zap.Error(err),
				)
				return fmt.Errorf("batch embed [%d:%d]: %w", offset, end, err)
			}
			if len(res.Embeddings) != end-offset {
				return fmt.Errorf("batch embed [%d:%d]: got %d vectors: %w",
					offset, end, len(res.Embeddings), domain.ErrEmbeddingProviderError)
			}
			parts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for _, part := range parts {
		out.Embeddings = append(out.Embeddings, part.Embeddings...)
		out.PromptTokens += part.PromptTokens
		out.TotalTokens += part.TotalTokens
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(out.TotalTokens)

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("requests", n),
		zap.Int("total_tokens", out.TotalTokens),
	)

	return out, nil
}
