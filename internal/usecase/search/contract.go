package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Repository loads the notes to rank.
type Repository interface {
	Get(ctx context.Context, id string) (domnote.Note, error)
	All(ctx context.Context) ([]domnote.Note, error)
}

// QueryParser turns a free-text query into a search intent.
type QueryParser interface {
	Enabled() bool
	Anonymizer() *anonymize.Anonymizer
	ParseSearchQuery(ctx context.Context, query string, now time.Time) analysis.SearchIntent
}

// Embedder vectorizes anonymized text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
