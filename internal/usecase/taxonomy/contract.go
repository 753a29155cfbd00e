package taxonomy

import (
	"context"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/cluster"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
)

// Repository loads notes.
type Repository interface {
	All(ctx context.Context) ([]domnote.Note, error)
}

// Suggester proposes a taxonomy for clusters.
type Suggester interface {
	SuggestTaxonomy(ctx context.Context, summaries []cluster.Summary) (analysis.Taxonomy, error)
}
