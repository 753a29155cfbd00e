// Package search ranks notes against a query or against another note.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
	"github.com/kailas-cloud/vecnote/internal/rank"
)

const (
	maxRelatedLimit = 20
	defaultPageSize = 20
	maxPageSize     = 100
)

// Request is a search over notes.
type Request struct {
	Query            string
	Page             int
	PageSize         int
	Category         string
	Folder           string
	Tag              string
	TimeStart        string
	TimeEnd          string
	IncludeCompleted bool
}

// Hit is one ranked note.
type Hit struct {
	Note       domnote.Note
	MatchType  rank.MatchType
	Matched    []string
	Similarity float64
	Score      float64
}

// Result is one page of ranked notes.
type Result struct {
	Items    []Hit
	Total    int
	Page     int
	PageSize int
	Intent   analysis.SearchIntent
}

// RelatedResult lists notes similar to a given note.
type RelatedResult struct {
	Items []Hit
	Total int
	Mode  rank.RelatedMode
}

// Service ranks notes.
type Service struct {
	repo            Repository
	parser          QueryParser
	embedder        Embedder
	threshold       float64
	keywordLimit    int
	relatedLimit    int
	defaultPageSize int
	maxPageSize     int
	loc             *time.Location
	now             func() time.Time
	logger          *zap.Logger
}

// New creates a search service. A nil embedder restricts ranking to keywords.
func New(repo Repository, parser QueryParser, embedder Embedder, cfg domain.NoteConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := domain.DefaultNoteConfig()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.RelatedKeywordLimit <= 0 {
		cfg.RelatedKeywordLimit = def.RelatedKeywordLimit
	}
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = def.RelatedLimit
	}
	return &Service{
		repo:            repo,
		parser:          parser,
		embedder:        embedder,
		threshold:       cfg.SimilarityThreshold,
		keywordLimit:    cfg.RelatedKeywordLimit,
		relatedLimit:    cfg.RelatedLimit,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		loc:             time.UTC,
		now:             time.Now,
		logger:          logger,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// WithLocation sets the time zone used for day boundaries.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Search parses the query, filters notes and ranks them. The query's own
// date range and the request's range both apply.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, fmt.Errorf("query is required: %w", domain.ErrInvalidRequest)
	}
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.defaultPageSize
	}
	size = min(size, s.maxPageSize)

	now := s.now()
	intent := s.parser.ParseSearchQuery(ctx, query, now)
	semantic := intent.SemanticQuery
	if semantic == "" {
		semantic = query
	}
	keywords := intent.Keywords
	if len(keywords) == 0 {
		keywords = []string{semantic}
	}

	filter := domnote.Filter{
		Category:         req.Category,
		Folder:           req.Folder,
		Tag:              req.Tag,
		IncludeCompleted: req.IncludeCompleted,
	}.
		WithDays(intent.TimeStart, intent.TimeEnd, s.loc).
		WithDays(req.TimeStart, req.TimeEnd, s.loc)

	notes, err := s.repo.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load notes: %w", err)
	}
	notes = filter.Apply(notes)
	domnote.SortNewest(notes)

	ranked := rank.Rank(candidates(notes), rank.Query{
		Keywords:  keywords,
		Embedding: s.embedQuery(ctx, semantic),
		Threshold: s.threshold,
	})
	items, total := rank.Page(ranked, size, domnote.PageOffset(page, size))

	return Result{
		Items:    hits(items, notes),
		Total:    total,
		Page:     page,
		PageSize: size,
		Intent:   intent,
	}, nil
}

// Related ranks other notes against note id using its keywords and
// embedding. The embedding is only used while AI is enabled.
func (s *Service) Related(ctx context.Context, id string, limit int, includeCompleted bool) (RelatedResult, error) {
	if limit <= 0 {
		limit = s.relatedLimit
	}
	if limit > maxRelatedLimit {
		return RelatedResult{}, fmt.Errorf("limit must be within [1, %d]: %w", maxRelatedLimit, domain.ErrInvalidRequest)
	}

	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return RelatedResult{}, fmt.Errorf("get note: %w", err)
	}
	notes, err := s.repo.All(ctx)
	if err != nil {
		return RelatedResult{}, fmt.Errorf("load notes: %w", err)
	}
	notes = domnote.Filter{IncludeCompleted: includeCompleted}.Apply(notes)
	domnote.SortNewest(notes)

	x := candidate(&target)
	if !s.parser.Enabled() {
		x.Embedding = nil
	}

	res := rank.Related(&x, candidates(notes), s.threshold, s.keywordLimit, limit)
	return RelatedResult{Items: hits(res.Items, notes), Total: res.Total, Mode: res.Mode}, nil
}

// embedQuery returns nil when AI is off or the provider fails; ranking then
// falls back to keywords.
func (s *Service) embedQuery(ctx context.Context, query string) []float32 {
	if s.embedder == nil || !s.parser.Enabled() {
		return nil
	}
	text, _ := s.parser.Anonymizer().Anonymize(query)
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logpkg.OrFallback(ctx, s.logger).Warn("Query embedding failed, ranking by keywords only", zap.Error(err))
		return nil
	}
	return res.Embedding
}

func candidate(n *domnote.Note) rank.Candidate {
	meta := n.Meta()
	return rank.Candidate{
		ID:         n.ID(),
		Title:      meta.Title,
		ShortTitle: meta.ShortTitle,
		Body:       n.Content(),
		Summary:    meta.Summary,
		Tags:       meta.Tags,
		Entities:   meta.Entities,
		Embedding:  n.Embedding(),
	}
}

func candidates(notes []domnote.Note) []rank.Candidate {
	out := make([]rank.Candidate, len(notes))
	for i := range notes {
		out[i] = candidate(&notes[i])
	}
	return out
}

// hits maps ranked candidates back to their notes.
func hits(items []rank.Scored, notes []domnote.Note) []Hit {
	byID := make(map[string]*domnote.Note, len(notes))
	for i := range notes {
		byID[notes[i].ID()] = &notes[i]
	}
	out := make([]Hit, 0, len(items))
	for _, it := range items {
		n, ok := byID[it.Candidate.ID]
		if !ok {
			continue
		}
		out = append(out, Hit{
			Note:       *n,
			MatchType:  it.MatchType,
			Matched:    it.Matched,
			Similarity: it.Similarity,
			Score:      it.Score,
		})
	}
	return out
}
