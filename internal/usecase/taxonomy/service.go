// Package taxonomy proposes categories and folders by clustering note
// embeddings and asking a completion model to name the groups.
package taxonomy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/cluster"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
)

// Result is a taxonomy proposal with the clusters it was built from.
type Result struct {
	Taxonomy analysis.Taxonomy
	Clusters []cluster.Summary
	// Members maps a cluster ID to the IDs of its notes.
	Members map[int][]string
}

// Service builds taxonomy proposals.
type Service struct {
	repo      Repository
	suggester Suggester
	threshold float64
	strategy  cluster.Strategy
	logger    *zap.Logger
}

// New creates a taxonomy service.
func New(repo Repository, suggester Suggester, threshold float64, strategy cluster.Strategy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, suggester: suggester, threshold: threshold, strategy: strategy, logger: logger}
}

// Suggest clusters every embedded note, oldest first, and asks for a
// taxonomy. The cluster summaries are returned even when the suggestion fails.
func (s *Service) Suggest(ctx context.Context) (Result, error) {
	notes, err := s.repo.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load notes: %w", err)
	}
	slices.SortStableFunc(notes, func(a, b domnote.Note) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})

	c := cluster.New(s.threshold, s.logger).WithStrategy(s.strategy)
	for i := range notes {
		n := &notes[i]
		c.Add(n.ID(), n.Embedding(), clusterTitle(n))
	}

	res := Result{Clusters: c.Summaries(), Members: make(map[int][]string, c.Len())}
	for _, cl := range c.Clusters() {
		ids := make([]string, len(cl.Members))
		for i, m := range cl.Members {
			ids[i] = m.ID
		}
		res.Members[cl.ID] = ids
	}
	logpkg.OrFallback(ctx, s.logger).Info("Notes clustered",
		zap.Int("notes", len(notes)),
		zap.Int("clusters", len(res.Clusters)),
	)

	tax, err := s.suggester.SuggestTaxonomy(ctx, res.Clusters)
	if err != nil {
		return res, fmt.Errorf("suggest taxonomy: %w", err)
	}
	res.Taxonomy = tax
	return res, nil
}

func clusterTitle(n *domnote.Note) string {
	meta := n.Meta()
	if meta.ShortTitle != "" {
		return meta.ShortTitle
	}
	return meta.Title
}
