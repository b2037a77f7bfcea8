// Package db defines the key-value facade shared by the chat history store,
// the embedding cache and health checks. Redis and Valkey both serve it.
package db

import (
	"context"
	"time"
)

// Store is the full facade a driver provides.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore keeps one record per hash key.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// ScanHashes returns every hash whose key matches a SCAN glob, keyed by key.
	// Keys removed between SCAN and HGETALL are left out.
	ScanHashes(ctx context.Context, pattern string) (map[string]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// KVStore keeps opaque values.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key in order; missing keys yield nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	// Set stores value; ttl <= 0 keeps it until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
