package note

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/vecnote/internal/db"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, key string) error
	existsFn       func(ctx context.Context, key string) (bool, error)
	scanFn         func(ctx context.Context, prefix string) ([]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, prefix string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, prefix)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "vecnote:"), ms
}

var testNow = time.Date(2026, 3, 7, 10, 30, 0, 0, time.UTC)

func testNote(t *testing.T) domnote.Note {
	t.Helper()
	n, err := domnote.New("n-1", "ssh to 10.0.0.1\npassword: hunter2", "infra/servers", domnote.Metadata{
		Title:       "Server access",
		ShortTitle:  "Server access",
		Category:    "credential",
		Summary:     "Login details",
		Tags:        []string{"credential", "server"},
		Entities:    map[string][]string{"ips": {"10.0.0.1"}},
		Sensitivity: domnote.SensitivityHigh,
	}, testNow)
	if err != nil {
		t.Fatalf("new note: %v", err)
	}
	n.SetEmbedding([]float32{0.5, -1.25, 3})
	n.SetPinned(true, testNow.Add(time.Minute))
	return n
}
