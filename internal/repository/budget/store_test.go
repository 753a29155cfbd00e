package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/vecnote/internal/db"
)

type fakeKV struct {
	values  map[string]int64
	raw     map[string][]byte
	ttls    map[string]time.Duration
	incrErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]int64{}, raw: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if b, ok := f.raw[key]; ok {
		return b, nil
	}
	return nil, db.ErrKeyNotFound
}

func (f *fakeKV) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.values[key] += val
	return f.values[key], nil
}

func (f *fakeKV) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if _, ok := f.ttls[key]; ok && nx {
		return nil
	}
	f.ttls[key] = ttl
	return nil
}

func TestIncrBy_SetsTTLOnce(t *testing.T) {
	kv := newFakeKV()
	s := New(kv)
	ctx := context.Background()

	if n, err := s.IncrBy(ctx, "k", 10, 48*time.Hour); err != nil || n != 10 {
		t.Fatalf("IncrBy = %d, %v", n, err)
	}
	if n, err := s.IncrBy(ctx, "k", 5, time.Hour); err != nil || n != 15 {
		t.Fatalf("IncrBy = %d, %v", n, err)
	}
	if kv.ttls["k"] != 48*time.Hour {
		t.Errorf("TTL = %v, want 48h", kv.ttls["k"])
	}
}

func TestIncrBy_Error(t *testing.T) {
	kv := newFakeKV()
	kv.incrErr = errors.New("down")
	if _, err := New(kv).IncrBy(context.Background(), "k", 1, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet(t *testing.T) {
	kv := newFakeKV()
	kv.raw["ok"] = []byte("42")
	kv.raw["bad"] = []byte("forty-two")
	s := New(kv)
	ctx := context.Background()

	tests := []struct {
		key     string
		want    int64
		wantErr bool
	}{
		{"ok", 42, false},
		{"missing", 0, false},
		{"bad", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := s.Get(ctx, tc.key)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Get = %d, want %d", got, tc.want)
			}
		})
	}
}
