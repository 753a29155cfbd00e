// Package db defines the storage contract shared by the Redis and bbolt
// drivers. Repositories depend on the narrow sub-interfaces only.
package db

import (
	"context"
	"time"
)

// Store is the facade a driver implements.
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

// HashSetItem holds a single key+fields pair for a batched HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based record operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Scan returns every key with the given prefix.
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrBy adds val to an integer key and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	// Expire sets a TTL. With nx the TTL is only set when the key has none.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
