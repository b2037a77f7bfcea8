package chunkstore

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain/chunk"
)

// chunkRecord is the on-disk representation of one chunk inside a group file.
type chunkRecord struct {
	Text     string        `json:"text"`
	Metadata chunkMetadata `json:"metadata"`
}

type chunkMetadata struct {
	Module string `json:"module"`
	Page   int    `json:"page"`
	Seq    int    `json:"seq"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

func encodeGroup(group []chunk.Chunk) ([]byte, error) {
	records := make([]chunkRecord, len(group))
	for i, c := range group {
		records[i] = chunkRecord{
			Text: c.Text(),
			Metadata: chunkMetadata{
				Module: c.Module(),
				Page:   c.Page(),
				Seq:    c.Seq(),
				Start:  c.Start(),
				End:    c.End(),
			},
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal chunk group: %w", err)
	}
	return data, nil
}

func decodeGroup(data []byte) ([]chunk.Chunk, error) {
	var records []chunkRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal chunk group: %w", err)
	}
	out := make([]chunk.Chunk, len(records))
	for i, r := range records {
		m := r.Metadata
		out[i] = chunk.Reconstruct(m.Module, m.Page, m.Seq, r.Text, m.Start, m.End)
	}
	return out, nil
}
