package note

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func mustNote(t *testing.T, id string, created time.Time, meta Metadata) Note {
	t.Helper()
	n, err := New(id, "body "+id, "", meta, created)
	if err != nil {
		t.Fatalf("new note: %v", err)
	}
	return n
}

func ids(notes []Note) []string {
	out := make([]string, len(notes))
	for i := range notes {
		out[i] = notes[i].ID()
	}
	return out
}

func TestFilter_Match(t *testing.T) {
	day := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	n := mustNote(t, "a", day, Metadata{Category: "work", Tags: []string{"Go", "infra"}})
	n.SetFolder("projects/api", day)

	done := mustNote(t, "b", day, Metadata{})
	done.SetCompleted(true, day)

	tests := []struct {
		name   string
		filter Filter
		note   *Note
		want   bool
	}{
		{"zero filter", Filter{}, &n, true},
		{"completed hidden", Filter{}, &done, false},
		{"completed included", Filter{IncludeCompleted: true}, &done, true},
		{"category", Filter{Category: "work"}, &n, true},
		{"other category", Filter{Category: "idea"}, &n, false},
		{"folder", Filter{Folder: "projects/api"}, &n, true},
		{"folder is exact", Filter{Folder: "projects"}, &n, false},
		{"tag ignores case", Filter{Tag: " go "}, &n, true},
		{"tag must be whole", Filter{Tag: "inf"}, &n, false},
		{"from inclusive", Filter{From: day}, &n, true},
		{"to exclusive", Filter{To: day}, &n, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.note); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_WithDays(t *testing.T) {
	f := Filter{}.WithDays("2026-03-01", "2026-03-07", time.UTC)
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !f.From.Equal(want) {
		t.Errorf("From = %v, want %v", f.From, want)
	}
	if want := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC); !f.To.Equal(want) {
		t.Errorf("To = %v, want %v", f.To, want)
	}

	lastMinute := mustNote(t, "x", time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC), Metadata{})
	if !f.Match(&lastMinute) {
		t.Error("end day must be inclusive")
	}

	g := f.WithDays("2026-02-01", "2026-03-03", time.UTC)
	if !g.From.Equal(f.From) {
		t.Errorf("wider start must not loosen the range: %v", g.From)
	}
	if want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC); !g.To.Equal(want) {
		t.Errorf("To = %v, want %v", g.To, want)
	}

	h := Filter{}.WithDays("yesterday", "2026/03/07", nil)
	if !h.From.IsZero() || !h.To.IsZero() {
		t.Errorf("malformed days must be ignored: %+v", h)
	}
}

func TestFilter_Apply(t *testing.T) {
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	a := mustNote(t, "a", day, Metadata{Category: "work"})
	b := mustNote(t, "b", day, Metadata{Category: "idea"})
	c := mustNote(t, "c", day, Metadata{Category: "work"})

	got := ids(Filter{Category: "work"}.Apply([]Note{a, b, c}))
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("got %v", got)
	}
}

func TestSortPinnedFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := mustNote(t, "old", base, Metadata{})
	newer := mustNote(t, "newer", base.Add(time.Hour), Metadata{})
	pinnedEarly := mustNote(t, "pinned-early", base, Metadata{})
	pinnedEarly.SetPinned(true, base.Add(2*time.Hour))
	pinnedLate := mustNote(t, "pinned-late", base, Metadata{})
	pinnedLate.SetPinned(true, base.Add(3*time.Hour))

	notes := []Note{old, pinnedEarly, newer, pinnedLate}
	SortPinnedFirst(notes)

	want := []string{"pinned-late", "pinned-early", "newer", "old"}
	if got := ids(notes); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSortNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := []Note{
		mustNote(t, "b", base, Metadata{}),
		mustNote(t, "c", base.Add(time.Minute), Metadata{}),
		mustNote(t, "a", base, Metadata{}),
	}
	SortNewest(notes)

	want := []string{"c", "a", "b"}
	if got := ids(notes); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		want       int
	}{
		{"first page", 1, 20, 0},
		{"zero page", 0, 20, 0},
		{"third page", 3, 20, 40},
		{"zero size", 5, 0, 0},
		{"overflow saturates", math.MaxInt, 20, math.MaxInt},
		{"just below overflow", math.MaxInt/20 + 1, 20, math.MaxInt / 20 * 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageOffset(tt.page, tt.size); got != tt.want {
				t.Errorf("PageOffset(%d, %d) = %d, want %d", tt.page, tt.size, got, tt.want)
			}
		})
	}
}
