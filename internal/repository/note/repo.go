// Package note stores notes as hashes, one key per note.
package note

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecnote/internal/db"
	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

const keySegment = "note:"

// store is the consumer interface for notes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, prefix string) ([]string, error)
}

// Repo implements usecase/note.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a note repository. keyPrefix namespaces every key; empty selects
// domain.DefaultKeyPrefix.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: keyPrefix + keySegment}
}

func (r *Repo) key(id string) string { return r.prefix + id }

// Save creates or replaces a note.
func (r *Repo) Save(ctx context.Context, n *domnote.Note) error {
	fields, err := buildHashFields(n)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.key(n.ID()), fields); err != nil {
		return fmt.Errorf("hset note %s: %w", n.ID(), err)
	}
	return nil
}

// SaveMany replaces several notes in one round-trip.
func (r *Repo) SaveMany(ctx context.Context, notes []domnote.Note) error {
	if len(notes) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(notes))
	for i := range notes {
		fields, err := buildHashFields(&notes[i])
		if err != nil {
			return err
		}
		items[i] = db.HashSetItem{Key: r.key(notes[i].ID()), Fields: fields}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d notes: %w", len(notes), err)
	}
	return nil
}

// Get returns a note by ID.
func (r *Repo) Get(ctx context.Context, id string) (domnote.Note, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domnote.Note{}, fmt.Errorf("hgetall note %s: %w", id, err)
	}
	if len(m) == 0 {
		return domnote.Note{}, domain.ErrNoteNotFound
	}
	return parseHashFields(id, m)
}

// Delete removes a note.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNoteNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// All loads every note. Order is unspecified; callers sort.
func (r *Repo) All(ctx context.Context) ([]domnote.Note, error) {
	keys, err := r.store.Scan(ctx, r.prefix)
	if err != nil {
		return nil, fmt.Errorf("scan notes: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d notes: %w", len(keys), err)
	}

	out := make([]domnote.Note, 0, len(keys))
	for i, m := range hashes {
		// Deleted between SCAN and HGETALL.
		if len(m) == 0 {
			continue
		}
		n, err := parseHashFields(strings.TrimPrefix(keys[i], r.prefix), m)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Count returns the number of stored notes.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix)
	if err != nil {
		return 0, fmt.Errorf("scan notes: %w", err)
	}
	return len(keys), nil
}
