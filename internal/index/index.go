// Package index is an in-memory nearest-neighbour index over chunk embeddings.
// It lives for a single query and is never persisted.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/docqa/internal/domain/chunk"
)

var (
	// ErrEmpty signals a search over an index with no entries.
	ErrEmpty = errors.New("index is empty")
	// ErrDimensionMismatch signals vectors of different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Hit is one search result.
type Hit struct {
	Chunk chunk.Chunk
	Score float64
}

// Index holds chunks and their L2-normalized vectors.
type Index struct {
	dim     int
	chunks  []chunk.Chunk
	vectors [][]float64
}

// Build creates an index from parallel chunk and vector slices.
func Build(chunks []chunk.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	idx := &Index{
		chunks:  chunks,
		vectors: make([][]float64, len(vectors)),
	}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(v), idx.dim)
		}
		idx.vectors[i] = normalize(v)
	}
	return idx, nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Search returns the k chunks most similar to query by cosine similarity,
// best first. Ties keep index order.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(x.chunks) == 0 {
		return nil, ErrEmpty
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dims, want %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		k = 1
	}
	if k > len(x.chunks) {
		k = len(x.chunks)
	}

	q := normalize(query)
	hits := make([]Hit, len(x.chunks))
	for i, v := range x.vectors {
		hits[i] = Hit{Chunk: x.chunks[i], Score: dot(q, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits[:k], nil
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for i, f := range v {
		out[i] = float64(f)
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
