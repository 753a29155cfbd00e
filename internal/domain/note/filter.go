package note

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Filter selects notes for listing and search. Zero fields match everything.
type Filter struct {
	Category         string
	Folder           string
	Tag              string
	From             time.Time // inclusive
	To               time.Time // exclusive
	IncludeCompleted bool
}

// Match reports whether n passes every set condition. Tags compare
// case-insensitively; category and folder compare exactly.
func (f Filter) Match(n *Note) bool {
	if !f.IncludeCompleted && n.completed {
		return false
	}
	if f.Category != "" && n.meta.Category != f.Category {
		return false
	}
	if f.Folder != "" && n.folder != f.Folder {
		return false
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		if !slices.ContainsFunc(n.meta.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			return false
		}
	}
	if !f.From.IsZero() && n.createdAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !n.createdAt.Before(f.To) {
		return false
	}
	return true
}

// WithDays narrows the filter to whole days in loc. start and end are
// YYYY-MM-DD and both inclusive; malformed or empty values are ignored.
// Bounds only ever tighten an existing range.
func (f Filter) WithDays(start, end string, loc *time.Location) Filter {
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(start), loc); err == nil {
		if f.From.IsZero() || d.After(f.From) {
			f.From = d
		}
	}
	if d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(end), loc); err == nil {
		d = d.AddDate(0, 0, 1)
		if f.To.IsZero() || d.Before(f.To) {
			f.To = d
		}
	}
	return f
}

// Apply returns the notes that match, preserving order.
func (f Filter) Apply(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for i := range notes {
		if f.Match(&notes[i]) {
			out = append(out, notes[i])
		}
	}
	return out
}

// SortNewest orders notes by creation time, newest first. Equal times fall
// back to ID so the order is stable across loads.
func SortNewest(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		if c := b.createdAt.Compare(a.createdAt); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
}

// SortPinnedFirst orders pinned notes first (most recently pinned on top),
// then the rest newest first.
func SortPinnedFirst(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		if a.pinned != b.pinned {
			if a.pinned {
				return -1
			}
			return 1
		}
		if c := b.pinnedAt.Compare(a.pinnedAt); c != 0 {
			return c
		}
		if c := b.createdAt.Compare(a.createdAt); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
}

// PageOffset returns the index of the first item on a 1-based page. It
// saturates at math.MaxInt instead of overflowing, so an absurd page number
// yields an empty page.
func PageOffset(page, size int) int {
	if page <= 1 || size <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}
