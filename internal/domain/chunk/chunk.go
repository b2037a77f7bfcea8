// Package chunk holds the retrieval unit of the pipeline and the splitter that produces it.
package chunk

import "context"

// Chunk is a contiguous text segment of one page of an ingested document (immutable value object).
type Chunk struct {
	module string
	page   int
	seq    int
	text   string
	start  int
	end    int
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(module string, page, seq int, text string, start, end int) Chunk {
	return Chunk{module: module, page: page, seq: seq, text: text, start: start, end: end}
}

// Module returns the owning module name.
func (c *Chunk) Module() string { return c.module }

// Page returns the 0-based page index the chunk was cut from.
func (c *Chunk) Page() int { return c.page }

// Seq returns the 0-based position of the chunk within its page group.
func (c *Chunk) Seq() int { return c.seq }

// Text returns the chunk content.
func (c *Chunk) Text() string { return c.text }

// Start returns the rune offset of the chunk inside its page text.
func (c *Chunk) Start() int { return c.start }

// End returns the exclusive rune offset of the chunk inside its page text.
func (c *Chunk) End() int { return c.end }

// Staging receives the page groups of one ingestion and publishes them as a
// single replacement of the module's chunk set.
type Staging interface {
	Save(ctx context.Context, page int, group []Chunk) error
	// Commit publishes the staged set and returns the group file paths in page order.
	Commit(ctx context.Context) ([]string, error)
	// Abort discards the staged set. Safe to call after Commit.
	Abort() error
}
