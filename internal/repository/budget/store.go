// Package budget persists token budget counters in the key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/vecnote/internal/db"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps counters as integer keys (INCRBY + EXPIRE NX).
type Store struct {
	store store
}

// New creates a budget store.
func New(s store) *Store {
	return &Store{store: s}
}

// IncrBy atomically increments the counter and returns its new value. The TTL
// is set once, on the first increment of the period.
func (s *Store) IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	n, err := s.store.IncrBy(ctx, key, val)
	if err != nil {
		return 0, fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	if ttl > 0 {
		if err := s.store.Expire(ctx, key, ttl, true); err != nil {
			return n, fmt.Errorf("budget EXPIRE %s: %w", key, err)
		}
	}
	return n, nil
}

// Get returns the current counter value, 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}
