package note

import (
	"context"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Repository defines the storage contract for notes.
type Repository interface {
	Save(ctx context.Context, n *domnote.Note) error
	SaveMany(ctx context.Context, notes []domnote.Note) error
	Get(ctx context.Context, id string) (domnote.Note, error)
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]domnote.Note, error)
}

// Analyzer derives metadata from note content.
type Analyzer interface {
	Enabled() bool
	Categories() []string
	ShortTitleMax() int
	Anonymizer() *anonymize.Anonymizer
	Analyze(ctx context.Context, content string) analysis.Analysis
}

// Embedder vectorizes anonymized text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
