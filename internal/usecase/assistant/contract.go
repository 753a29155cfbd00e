package assistant

import (
	"context"

	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Repository loads notes.
type Repository interface {
	All(ctx context.Context) ([]domnote.Note, error)
}

// Writer produces answers and digests from note texts.
type Writer interface {
	Answer(ctx context.Context, question string, notes []string) string
	Summarize(ctx context.Context, notes []string, days int) string
}
