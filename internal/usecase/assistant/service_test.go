package assistant

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

type mockRepo struct {
	notes []domnote.Note
	err   error
}

func (m *mockRepo) All(context.Context) ([]domnote.Note, error) {
	return append([]domnote.Note(nil), m.notes...), m.err
}

// mockWriter records what it was asked.
type mockWriter struct {
	question string
	notes    []string
	days     int
}

func (w *mockWriter) Answer(_ context.Context, question string, notes []string) string {
	w.question, w.notes = question, notes
	return fmt.Sprintf("answer from %d notes", len(notes))
}

func (w *mockWriter) Summarize(_ context.Context, notes []string, days int) string {
	w.notes, w.days = notes, days
	return "digest"
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func note(t *testing.T, id string, age time.Duration, meta domnote.Metadata) domnote.Note {
	t.Helper()
	n, err := domnote.New(id, "content "+id, "", meta, now.Add(-age))
	if err != nil {
		t.Fatalf("new note: %v", err)
	}
	return n
}

func newService(repo Repository, w Writer) *Service {
	s := New(repo, w)
	s.now = func() time.Time { return now }
	return s
}

func TestAsk_MatchesSummaryAndTags(t *testing.T) {
	repo := &mockRepo{notes: []domnote.Note{
		note(t, "old", 72*time.Hour, domnote.Metadata{Summary: "VPN setup for the Office"}),
		note(t, "tagged", 48*time.Hour, domnote.Metadata{Tags: []string{"office", "wifi"}}),
		note(t, "other", time.Hour, domnote.Metadata{Summary: "recipes"}),
	}}
	w := &mockWriter{}
	svc := newService(repo, w)

	res, err := svc.Ask(context.Background(), " office ")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "answer from 2 notes" {
		t.Errorf("answer = %q", res.Answer)
	}
	if w.question != "office" {
		t.Errorf("question = %q", w.question)
	}
	if !reflect.DeepEqual(w.notes, []string{"content tagged", "content old"}) {
		t.Errorf("notes = %v", w.notes)
	}
	if len(res.Matches) != 2 || res.Matches[0].ID() != "tagged" {
		t.Errorf("matches = %d", len(res.Matches))
	}
}

func TestAsk_WindowAndMatchCap(t *testing.T) {
	var notes []domnote.Note
	for i := range 60 {
		notes = append(notes, note(t, fmt.Sprintf("n%02d", i), time.Duration(i)*time.Minute,
			domnote.Metadata{Summary: "shared topic"}))
	}
	w := &mockWriter{}
	svc := newService(&mockRepo{notes: notes}, w)

	res, err := svc.Ask(context.Background(), "topic")
	if err != nil {
		t.Fatal(err)
	}
	if len(w.notes) != askWindow {
		t.Errorf("answered from %d notes, want %d", len(w.notes), askWindow)
	}
	if len(res.Matches) != askMatches || res.Matches[0].ID() != "n00" {
		t.Errorf("matches = %d, first = %s", len(res.Matches), res.Matches[0].ID())
	}
}

func TestAsk_Errors(t *testing.T) {
	svc := newService(&mockRepo{err: errors.New("down")}, &mockWriter{})

	if _, err := svc.Ask(context.Background(), ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("empty query: %v", err)
	}
	if _, err := svc.Ask(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "down") {
		t.Errorf("repo error: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	repo := &mockRepo{notes: []domnote.Note{
		note(t, "week-old", 8*24*time.Hour, domnote.Metadata{}),
		note(t, "yesterday", 24*time.Hour, domnote.Metadata{}),
		note(t, "today", time.Hour, domnote.Metadata{}),
	}}
	w := &mockWriter{}
	svc := newService(repo, w)

	got, err := svc.Summarize(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "digest" || w.days != 7 {
		t.Errorf("got %q days=%d", got, w.days)
	}
	if !reflect.DeepEqual(w.notes, []string{"content today", "content yesterday"}) {
		t.Errorf("notes = %v", w.notes)
	}
}

func TestSummarize_DaysOutOfRange(t *testing.T) {
	svc := newService(&mockRepo{}, &mockWriter{})

	for _, days := range []int{-1, MaxSummaryDays + 1} {
		if _, err := svc.Summarize(context.Background(), days); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("days=%d: %v", days, err)
		}
	}
}
