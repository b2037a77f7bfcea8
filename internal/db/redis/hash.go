package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docqa/internal/db"
)

// HSet writes hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.client.B().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.client.Do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Key: key, Err: err}
	}
	return nil
}

// ScanHashes walks the keyspace with SCAN and loads the matched hashes with a
// single pipelined round of HGETALL.
func (s *Store) ScanHashes(ctx context.Context, pattern string) (map[string]map[string]string, error) {
	keys, err := s.scan(ctx, pattern)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.client.B().Hgetall().Key(key).Build()
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Key: keys[i], Err: err}
		}
		if len(fields) == 0 {
			continue
		}
		out[keys[i]] = fields
	}
	return out, nil
}

// Del deletes keys in one command.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// scan collects every key matching pattern. SCAN may repeat keys across pages.
func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64

	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Build()
		page, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Key: pattern, Err: err}
		}
		for _, k := range page.Elements {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if cursor = page.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}
