package chunk

import (
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Ingestion defaults.
const (
	DefaultMaxSize = 1536
	DefaultOverlap = 200
)

// Params configures the splitter. MaxSize and Overlap are counted in characters (runes).
type Params struct {
	MaxSize int
	Overlap int
}

// DefaultParams returns the ingestion defaults.
func DefaultParams() Params {
	return Params{MaxSize: DefaultMaxSize, Overlap: DefaultOverlap}
}

// Validate requires MaxSize > Overlap >= 0.
func (p Params) Validate() error {
	if p.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d is negative", domain.ErrInvalidSplitParams, p.Overlap)
	}
	if p.MaxSize <= p.Overlap {
		return fmt.Errorf("%w: max size %d must exceed overlap %d",
			domain.ErrInvalidSplitParams, p.MaxSize, p.Overlap)
	}
	return nil
}

// Segment is one window of a split text.
type Segment struct {
	Text  string
	Start int
	End   int
}

// Split walks text in windows of at most p.MaxSize characters, each starting
// p.MaxSize-p.Overlap characters after the previous one. Boundaries are
// character based and may fall mid-word. The walk stops at the first window
// that reaches the end of the text.
func Split(text string, p Params) ([]Segment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := p.MaxSize - p.Overlap
	segments := make([]Segment, 0, len(runes)/step+1)

	for start := 0; ; start += step {
		end := min(start+p.MaxSize, len(runes))
		segments = append(segments, Segment{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}

	return segments, nil
}

// ForPage splits one page and stamps module and page provenance on every chunk.
func ForPage(module string, page int, text string, p Params) ([]Chunk, error) {
	segments, err := Split(text, p)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(segments))
	for i, s := range segments {
		chunks[i] = Chunk{
			module: module,
			page:   page,
			seq:    i,
			text:   s.Text,
			start:  s.Start,
			end:    s.End,
		}
	}
	return chunks, nil
}

// Reassemble rebuilds the page text from an ordered chunk group by dropping
// each chunk's overlap with its predecessor.
func Reassemble(group []Chunk) string {
	var out []rune
	for _, c := range group {
		runes := []rune(c.text)
		skip := len(out) - c.start
		if skip < 0 {
			skip = 0
		}
		if skip > len(runes) {
			continue
		}
		out = append(out, runes[skip:]...)
	}
	return string(out)
}
