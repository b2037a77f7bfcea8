package chat

import (
	"context"
	"strings"
	"sync"
)

// memStore is an in-memory implementation of the consumer interface for tests.
type memStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	scanErr error
	hsetErr error
	delErr  error
	scanned []string
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]map[string]string)}
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.hashes[key] = cp
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.hashes, k)
	}
	return nil
}

// ScanHashes supports the '*' wildcard at segment level, which is all the repo uses.
func (m *memStore) ScanHashes(_ context.Context, pattern string) (map[string]map[string]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanned = append(m.scanned, pattern)
	out := make(map[string]map[string]string)
	for k, h := range m.hashes {
		if globMatch(pattern, k) {
			out[k] = h
		}
	}
	return out, nil
}

func globMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(s, parts[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(parts[i]):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}
