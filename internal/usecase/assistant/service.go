// Package assistant answers questions about notes and digests recent ones.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

const (
	askWindow  = 50
	askMatches = 5

	// MaxSummaryDays bounds the digest window.
	MaxSummaryDays     = 30
	defaultSummaryDays = 7
)

// AskResult is an answer and the notes it drew on.
type AskResult struct {
	Answer  string
	Matches []domnote.Note
}

// Service answers questions and summarizes notes.
type Service struct {
	repo   Repository
	writer Writer
	now    func() time.Time
}

// New creates an assistant service.
func New(repo Repository, writer Writer) *Service {
	return &Service{repo: repo, writer: writer, now: time.Now}
}

// Ask answers query from the latest notes whose summary or tags mention it.
func (s *Service) Ask(ctx context.Context, query string) (AskResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return AskResult{}, fmt.Errorf("query is required: %w", domain.ErrInvalidRequest)
	}

	notes, err := s.repo.All(ctx)
	if err != nil {
		return AskResult{}, fmt.Errorf("load notes: %w", err)
	}
	domnote.SortNewest(notes)
	if len(notes) > askWindow {
		notes = notes[:askWindow]
	}

	needle := strings.ToLower(query)
	var matches []domnote.Note
	var contents []string
	for i := range notes {
		meta := notes[i].Meta()
		if strings.Contains(strings.ToLower(meta.Summary), needle) ||
			strings.Contains(strings.ToLower(strings.Join(meta.Tags, " ")), needle) {
			matches = append(matches, notes[i])
			contents = append(contents, notes[i].Content())
		}
	}

	answer := s.writer.Answer(ctx, query, contents)
	if len(matches) > askMatches {
		matches = matches[:askMatches]
	}
	return AskResult{Answer: answer, Matches: matches}, nil
}

// Summarize digests notes created in the last days. Zero selects a week.
func (s *Service) Summarize(ctx context.Context, days int) (string, error) {
	if days == 0 {
		days = defaultSummaryDays
	}
	if days < 1 || days > MaxSummaryDays {
		return "", fmt.Errorf("days must be within [1, %d]: %w", MaxSummaryDays, domain.ErrInvalidRequest)
	}

	notes, err := s.repo.All(ctx)
	if err != nil {
		return "", fmt.Errorf("load notes: %w", err)
	}
	notes = domnote.Filter{From: s.now().AddDate(0, 0, -days), IncludeCompleted: true}.Apply(notes)
	domnote.SortNewest(notes)

	contents := make([]string, len(notes))
	for i := range notes {
		contents[i] = notes[i].Content()
	}
	return s.writer.Summarize(ctx, contents, days), nil
}
