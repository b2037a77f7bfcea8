package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// stubEmbedder returns vec for every input and counts tokens per input.
type stubEmbedder struct {
	vec        []float32
	tokens     int
	err        error
	batchCalls int
	lastBatch  []string
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec, PromptTokens: s.tokens, TotalTokens: s.tokens}, nil
}

func (s *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.batchCalls++
	s.lastBatch = texts
	if s.err != nil {
		return domain.BatchEmbeddingResult{}, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	n := s.tokens * len(texts)
	return domain.BatchEmbeddingResult{Embeddings: out, PromptTokens: n, TotalTokens: n}, nil
}

// memKV is an in-memory key-value store with injectable failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	mgetErr error
	setErr  error
	mgets   int
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mgets++
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

func newTestCache(t *testing.T, inner *stubEmbedder, kv *memKV, cacheTotal *prometheus.CounterVec) *CachedEmbedder {
	t.Helper()
	return New(inner, kv, Options{KeyPrefix: "docqa:", Model: "test-model", TTL: time.Hour}, cacheTotal, zap.NewNop())
}
