// Package generation holds generator decorators.
package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// InstrumentedGenerator wraps a Generator with logging, usage accounting and
// an optional local rate limit.
type InstrumentedGenerator struct {
	inner    domain.Generator
	provider string
	model    string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewInstrumentedGenerator wraps a generator. rps <= 0 disables the limiter.
func NewInstrumentedGenerator(
	inner domain.Generator, provider, model string,
	rps float64, burst int, logger *zap.Logger,
) *InstrumentedGenerator {
	g := &InstrumentedGenerator{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return g
}

// Generate rejects with ErrRateLimited when the limiter is exhausted, otherwise delegates.
func (g *InstrumentedGenerator) Generate(
	ctx context.Context, req domain.GenerationRequest,
) (domain.GenerationResult, error) {
	if g.limiter != nil && !g.limiter.Allow() {
		metrics.GenerationRateLimitedTotal.Inc()
		g.logger.Warn("Generation rate limited",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
		)
		return domain.GenerationResult{}, domain.ErrRateLimited
	}

	start := time.Now()

	res, err := g.inner.Generate(ctx, req)

	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	domain.UsageFromContext(ctx).AddGenerationTokens(res.TotalTokens)

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
	)
	return res, nil
}
