package domain

import (
	"context"
	"sync"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service,
// the providers' callers write into it, the handler reads it for response headers.
type TokenUsage struct {
	mu               sync.Mutex
	EmbeddingTokens  int
	GenerationTokens int
	Used             bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens.
func (u *TokenUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddGenerationTokens records consumed completion tokens.
func (u *TokenUsage) AddGenerationTokens(n int) {
	if u != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.GenerationTokens += n
		u.Used = true
	}
}
