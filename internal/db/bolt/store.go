// Package bolt implements db.Store on an embedded bbolt file for single-node
// deployments without Redis.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/db"
)

var _ db.Store = (*Store)(nil)

var (
	hashBucket = []byte("hash")
	kvBucket   = []byte("kv")
)

const (
	defaultSweepInterval = time.Minute
	openTimeout          = 5 * time.Second
	expiryLen            = 8
)

// Config holds the bbolt file location.
type Config struct {
	Path          string
	SweepInterval time.Duration
}

// Store implements db.Store on bbolt. Hashes are stored as JSON objects in one
// bucket, plain values with an expiry header in another. Expired values are
// invisible immediately and removed by a background sweep.
type Store struct {
	db     *bolt.DB
	logger *zap.Logger
	now    func() time.Time

	stop     chan struct{}
	done     chan struct{}
	closeOne sync.Once
}

// NewStore opens (or creates) the bbolt file at cfg.Path.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bdb, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bbolt %q: %w", cfg.Path, err)
	}
	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{hashBucket, kvBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	s := &Store{
		db:     bdb,
		logger: logger,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go s.sweepLoop(interval)
	return s, nil
}

// Ping checks that the file is open.
func (s *Store) Ping(_ context.Context) error {
	if err := s.db.View(func(*bolt.Tx) error { return nil }); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady returns once the file answers a Ping; an open file is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close stops the sweeper and closes the file.
func (s *Store) Close() {
	s.closeOne.Do(func() {
		close(s.stop)
		<-s.done
		if err := s.db.Close(); err != nil {
			s.logger.Warn("Failed to close bbolt", zap.Error(err))
		}
	})
}

// --- hashes ---

// HSet merges fields into the hash at key.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return putHash(tx.Bucket(hashBucket), key, fields)
	}); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HSetMulti merges every item in one transaction.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(hashBucket)
		for _, item := range items {
			if len(item.Fields) == 0 {
				continue
			}
			if err := putHash(b, item.Key, item.Fields); err != nil {
				return fmt.Errorf("key %s: %w", item.Key, err)
			}
		}
		return nil
	}); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash, or an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	var out map[string]string
	if err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = getHash(tx.Bucket(hashBucket), key)
		return err
	}); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return out, nil
}

// HGetAllMulti reads several hashes from one snapshot.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]map[string]string, len(keys))
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(hashBucket)
		for i, key := range keys {
			m, err := getHash(b, key)
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			out[i] = m
		}
		return nil
	}); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return out, nil
}

func putHash(b *bolt.Bucket, key string, fields map[string]string) error {
	current, err := getHash(b, key)
	if err != nil {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}
	data, err := json.Marshal(current)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func getHash(b *bolt.Bucket, key string) (map[string]string, error) {
	out := map[string]string{}
	raw := b.Get([]byte(key))
	if raw == nil {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode hash: %w", err)
	}
	return out, nil
}

// --- keys ---

// Del deletes a key from both buckets.
func (s *Store) Del(_ context.Context, key string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(hashBucket).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(kvBucket).Delete([]byte(key))
	}); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether key holds a hash or a live value.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	var found bool
	now := s.now()
	if err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(hashBucket).Get([]byte(key)) != nil {
			found = true
			return nil
		}
		_, found = liveValue(tx.Bucket(kvBucket).Get([]byte(key)), now)
		return nil
	}); err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return found, nil
}

// Scan returns every hash or live value key with the given prefix, in byte order.
func (s *Store) Scan(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	now := s.now()
	p := []byte(prefix)
	if err := s.db.View(func(tx *bolt.Tx) error {
		hc := tx.Bucket(hashBucket).Cursor()
		for k, _ := hc.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = hc.Next() {
			keys = append(keys, string(k))
		}
		kc := tx.Bucket(kvBucket).Cursor()
		for k, v := kc.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = kc.Next() {
			if _, ok := liveValue(v, now); ok {
				keys = append(keys, string(k))
			}
		}
		return nil
	}); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// --- values ---

// Get returns the value at key or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	now := s.now()
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v, ok := liveValue(tx.Bucket(kvBucket).Get([]byte(key)), now); ok {
			out = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if out == nil {
		return nil, db.ErrKeyNotFound
	}
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), encodeValue(value, time.Time{}))
	}); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	expires := s.now().Add(ttl)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put([]byte(key), encodeValue(value, expires))
	}); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy adds val to the integer at key, keeping its expiry. A missing or
// expired key counts as zero.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	var n int64
	now := s.now()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(kvBucket)
		raw := b.Get([]byte(key))
		var expires time.Time
		if v, ok := liveValue(raw, now); ok {
			cur, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return db.ErrNotInteger
			}
			n = cur
			expires = expiryOf(raw)
		}
		n += val
		return b.Put([]byte(key), encodeValue([]byte(strconv.FormatInt(n, 10)), expires))
	}); err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return n, nil
}

// Expire sets the TTL of a live value. Missing keys are ignored, as in Redis.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	now := s.now()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(kvBucket)
		raw := b.Get([]byte(key))
		v, ok := liveValue(raw, now)
		if !ok {
			return nil
		}
		if nx && !expiryOf(raw).IsZero() {
			return nil
		}
		return b.Put([]byte(key), encodeValue(v, now.Add(ttl)))
	}); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// encodeValue prefixes value with its expiry in unix nanoseconds; zero means none.
func encodeValue(value []byte, expires time.Time) []byte {
	out := make([]byte, expiryLen+len(value))
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(out, uint64(expires.UnixNano()))
	}
	copy(out[expiryLen:], value)
	return out
}

func expiryOf(raw []byte) time.Time {
	if len(raw) < expiryLen {
		return time.Time{}
	}
	ns := binary.BigEndian.Uint64(raw[:expiryLen])
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ns))
}

// liveValue strips the expiry header. ok is false for missing or expired values.
func liveValue(raw []byte, now time.Time) ([]byte, bool) {
	if len(raw) < expiryLen {
		return nil, false
	}
	if exp := expiryOf(raw); !exp.IsZero() && !now.Before(exp) {
		return nil, false
	}
	return raw[expiryLen:], true
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n, err := s.sweep(); err != nil {
				s.logger.Warn("bbolt sweep failed", zap.Error(err))
			} else if n > 0 {
				s.logger.Debug("bbolt sweep", zap.Int("expired", n))
			}
		}
	}
}

// sweep deletes expired values and returns how many were removed.
func (s *Store) sweep() (int, error) {
	now := s.now()
	var expired [][]byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(kvBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if _, ok := liveValue(v, now); !ok {
				expired = append(expired, append([]byte(nil), k...))
			}
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}
