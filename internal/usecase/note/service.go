// Package note implements note CRUD with metadata analysis and embeddings.
package note

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/domain"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
)

// Limits on request parameters.
const (
	MaxRebuildBatch = 500

	defaultPageSize = 20
	maxPageSize     = 100
)

// Timeline groupings.
const (
	GroupMonth = "month"
	GroupDay   = "day"
)

// Input is a note creation request. Empty optional fields are derived.
type Input struct {
	Content  string
	Title    string
	Category string
	Folder   string
}

// Update is a partial note update. Nil fields are left unchanged.
type Update struct {
	Content    *string
	Title      *string
	ShortTitle *string
	Category   *string
	Folder     *string
	Tags       *[]string
	Completed  *bool
	Pinned     *bool
	// Reanalyze re-runs analysis and embedding on new content.
	Reanalyze bool
}

func (u Update) empty() bool {
	return u.Content == nil && u.Title == nil && u.ShortTitle == nil && u.Category == nil &&
		u.Folder == nil && u.Tags == nil && u.Completed == nil && u.Pinned == nil
}

// ListRequest selects a page of notes.
type ListRequest struct {
	Page             int
	PageSize         int
	Category         string
	Folder           string
	Tag              string
	TimeStart        string
	TimeEnd          string
	IncludeCompleted bool
}

// ListResult is one page of notes.
type ListResult struct {
	Items    []domnote.Note
	Total    int
	Page     int
	PageSize int
}

// TimelineBucket counts notes in one day or month.
type TimelineBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// RebuildRequest selects a batch of notes to re-embed. Notes are walked in
// descending ID order; Cursor is the last ID of the previous batch.
type RebuildRequest struct {
	Cursor    string
	BatchSize int
	Reanalyze bool
}

// RebuildResult reports a rebuild batch.
type RebuildResult struct {
	Total      int      `json:"total"`
	Updated    int      `json:"updated"`
	Failed     int      `json:"failed"`
	Failures   []string `json:"failures"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Service handles notes.
type Service struct {
	repo            Repository
	analyzer        Analyzer
	embedder        Embedder
	logger          *zap.Logger
	loc             *time.Location
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// New creates a note service. A nil embedder leaves notes without embeddings.
func New(repo Repository, analyzer Analyzer, embedder Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:            repo,
		analyzer:        analyzer,
		embedder:        embedder,
		logger:          logger,
		loc:             time.UTC,
		now:             time.Now,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
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

// Create analyzes, embeds and stores a new note.
func (s *Service) Create(ctx context.Context, in Input) (domnote.Note, error) {
	now := s.now()
	n, err := domnote.New(domnote.NewID(), in.Content, in.Folder, domnote.Metadata{}, now)
	if err != nil {
		return domnote.Note{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	an := s.analyzer.Analyze(ctx, in.Content)
	res := an.Result
	allowed := s.analyzer.Categories()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domnote.GenerateTitle(res.Meta(), in.Content)
	}
	analyzed := res.Meta()
	shortTitle := domnote.BuildShortTitle(&analyzed, in.Content, title, in.Title != "", s.analyzer.ShortTitleMax())

	meta := domnote.Metadata{
		Title:       title,
		ShortTitle:  shortTitle,
		Category:    s.createCategory(allowed, in.Category, res.Category),
		Summary:     domnote.SummaryOrContent(res.Summary, in.Content),
		Tags:        domnote.NormalizeTags(res.Tags),
		Entities:    res.Entities,
		Sensitivity: res.Sensitivity,
	}
	if meta.Entities == nil {
		meta.Entities = map[string][]string{}
	}
	if meta.Sensitivity == "" {
		meta.Sensitivity = s.sensitivity(in.Content)
	}
	n.SetMeta(meta, now)

	titleSource := an.Anonymized.Title
	if titleSource == "" && in.Title != "" {
		titleSource, _ = s.analyzer.Anonymizer().Anonymize(in.Title)
	}
	source := domnote.EmbeddingSource(an.Text, titleSource, an.Anonymized.Summary, an.Anonymized.Tags)
	if vec, err := s.embed(ctx, source); err != nil {
		logpkg.OrFallback(ctx, s.logger).Warn("Note embedding failed, storing without vector",
			zap.String("id", n.ID()), zap.Error(err))
	} else {
		n.SetEmbedding(vec)
	}

	if err := s.repo.Save(ctx, &n); err != nil {
		return domnote.Note{}, fmt.Errorf("save note: %w", err)
	}
	return n, nil
}

// createCategory prefers an allowed override. Without AI the first allowed
// category is used; otherwise the analyzed one when allowed.
func (s *Service) createCategory(allowed []string, override, analyzed string) string {
	key := strings.ToLower(strings.TrimSpace(override))
	if key != "" && slices.Contains(allowed, key) {
		return key
	}
	if !s.analyzer.Enabled() && len(allowed) > 0 {
		return allowed[0]
	}
	return domnote.SelectCategory(allowed, "", analyzed)
}

func (s *Service) sensitivity(content string) domnote.Sensitivity {
	if s.analyzer.Anonymizer().DetectSensitive(content) {
		return domnote.SensitivityHigh
	}
	return domnote.SensitivityLow
}

// Get returns a note by ID.
func (s *Service) Get(ctx context.Context, id string) (domnote.Note, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return domnote.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// List returns a page of notes, pinned first then newest.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	page, size := s.pagination(req.Page, req.PageSize)

	notes, err := s.repo.All(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("load notes: %w", err)
	}
	notes = s.filter(req).Apply(notes)
	domnote.SortPinnedFirst(notes)

	total := len(notes)
	start := min(domnote.PageOffset(page, size), total)
	end := min(start+size, total)
	return ListResult{Items: notes[start:end], Total: total, Page: page, PageSize: size}, nil
}

func (s *Service) filter(req ListRequest) domnote.Filter {
	return domnote.Filter{
		Category:         req.Category,
		Folder:           req.Folder,
		Tag:              req.Tag,
		IncludeCompleted: req.IncludeCompleted,
	}.WithDays(req.TimeStart, req.TimeEnd, s.loc)
}

func (s *Service) pagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.defaultPageSize
	}
	return page, min(size, s.maxPageSize)
}

// Timeline counts notes per day or month, newest bucket first.
func (s *Service) Timeline(ctx context.Context, group string, req ListRequest) ([]TimelineBucket, error) {
	var layout string
	switch strings.ToLower(strings.TrimSpace(group)) {
	case "", GroupMonth:
		layout = "2006-01"
	case GroupDay:
		layout = time.DateOnly
	default:
		return nil, fmt.Errorf("invalid group %q: %w", group, domain.ErrInvalidRequest)
	}

	notes, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	counts := make(map[string]int)
	for _, n := range s.filter(req).Apply(notes) {
		counts[n.CreatedAt().In(s.loc).Format(layout)]++
	}

	out := make([]TimelineBucket, 0, len(counts))
	for k, c := range counts {
		out = append(out, TimelineBucket{Key: k, Count: c})
	}
	slices.SortFunc(out, func(a, b TimelineBucket) int { return strings.Compare(b.Key, a.Key) })
	return out, nil
}

// Update applies a partial update. Explicit fields win over re-analysis.
func (s *Service) Update(ctx context.Context, id string, u Update) (domnote.Note, error) {
	if u.empty() {
		return domnote.Note{}, fmt.Errorf("nothing to update: %w", domain.ErrInvalidRequest)
	}

	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return domnote.Note{}, fmt.Errorf("get note: %w", err)
	}
	now := s.now()

	if u.Content != nil {
		if err := s.applyContent(ctx, &n, *u.Content, u.Title, u.Reanalyze, now); err != nil {
			return domnote.Note{}, err
		}
	} else if u.Title != nil {
		meta := n.Meta()
		meta.Title = strings.TrimSpace(*u.Title)
		if short := domnote.BuildShortTitle(nil, n.Content(), meta.Title, true, s.analyzer.ShortTitleMax()); short != "" {
			meta.ShortTitle = short
		}
		n.SetMeta(meta, now)
	}

	s.applyExplicit(&n, u, now)

	if err := s.repo.Save(ctx, &n); err != nil {
		return domnote.Note{}, fmt.Errorf("save note: %w", err)
	}
	return n, nil
}

func (s *Service) applyContent(
	ctx context.Context, n *domnote.Note, content string, title *string, reanalyze bool, now time.Time,
) error {
	if err := n.SetContent(content, now); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	var an analysis.Analysis
	if reanalyze {
		an = s.analyzer.Analyze(ctx, content)
	}
	analyzed := an.Result.Meta()
	meta := n.Meta()

	switch {
	case title != nil:
		meta.Title = strings.TrimSpace(*title)
	case meta.Title == "":
		meta.Title = domnote.GenerateTitle(analyzed, content)
	}
	if short := domnote.BuildShortTitle(&analyzed, content, meta.Title, title != nil, s.analyzer.ShortTitleMax()); short != "" {
		meta.ShortTitle = short
	}

	if reanalyze {
		mergeAnalysis(&meta, analyzed, s.analyzer.Categories())
		source := domnote.EmbeddingSource(an.Text, an.Anonymized.Title, an.Anonymized.Summary, an.Anonymized.Tags)
		if vec, err := s.embed(ctx, source); err != nil {
			logpkg.OrFallback(ctx, s.logger).Warn("Note re-embedding failed, keeping previous vector",
				zap.String("id", n.ID()), zap.Error(err))
		} else {
			n.SetEmbedding(vec)
		}
	}

	n.SetMeta(meta, now)
	return nil
}

// mergeAnalysis overlays analyzed fields onto meta, keeping existing values
// where the analysis has none.
func mergeAnalysis(meta *domnote.Metadata, analyzed domnote.Metadata, allowed []string) {
	if c := strings.ToLower(strings.TrimSpace(analyzed.Category)); slices.Contains(allowed, c) {
		meta.Category = c
	}
	if len(analyzed.Tags) > 0 {
		meta.Tags = domnote.NormalizeTags(analyzed.Tags)
	} else {
		meta.Tags = domnote.NormalizeTags(meta.Tags)
	}
	if analyzed.Summary != "" {
		meta.Summary = analyzed.Summary
	}
	if len(analyzed.Entities) > 0 {
		meta.Entities = analyzed.Entities
	}
	if analyzed.Sensitivity != "" {
		meta.Sensitivity = analyzed.Sensitivity
	}
}

func (s *Service) applyExplicit(n *domnote.Note, u Update, now time.Time) {
	meta := n.Meta()
	changed := false

	if u.ShortTitle != nil {
		meta.ShortTitle = domnote.NormalizeShortTitle(*u.ShortTitle, s.analyzer.ShortTitleMax())
		changed = true
	}
	if u.Category != nil {
		if c := strings.ToLower(strings.TrimSpace(*u.Category)); slices.Contains(s.analyzer.Categories(), c) {
			meta.Category = c
			changed = true
		}
	}
	if u.Tags != nil {
		meta.Tags = domnote.NormalizeTags(*u.Tags)
		changed = true
	}
	if changed {
		n.SetMeta(meta, now)
	}

	if u.Folder != nil {
		n.SetFolder(*u.Folder, now)
	}
	if u.Completed != nil {
		n.SetCompleted(*u.Completed, now)
	}
	if u.Pinned != nil {
		n.SetPinned(*u.Pinned, now)
	}
}

// RebuildEmbeddings re-embeds one batch of notes, optionally re-running
// analysis. A failing note is counted and skipped.
func (s *Service) RebuildEmbeddings(ctx context.Context, req RebuildRequest) (RebuildResult, error) {
	if !s.analyzer.Enabled() || s.embedder == nil {
		return RebuildResult{}, domain.ErrAIDisabled
	}
	if req.BatchSize < 0 || req.BatchSize > MaxRebuildBatch {
		return RebuildResult{}, fmt.Errorf("batch_size must be within [0, %d]: %w", MaxRebuildBatch, domain.ErrInvalidRequest)
	}

	notes, err := s.repo.All(ctx)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("load notes: %w", err)
	}
	res := RebuildResult{Total: len(notes), Failures: []string{}}

	slices.SortFunc(notes, func(a, b domnote.Note) int { return strings.Compare(b.ID(), a.ID()) })
	if req.Cursor != "" {
		i, _ := slices.BinarySearchFunc(notes, req.Cursor, func(n domnote.Note, c string) int {
			return strings.Compare(c, n.ID())
		})
		for i < len(notes) && notes[i].ID() >= req.Cursor {
			i++
		}
		notes = notes[i:]
	}
	if req.BatchSize > 0 && len(notes) > req.BatchSize {
		notes = notes[:req.BatchSize]
	}

	updated := make([]domnote.Note, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		if err := s.rebuildOne(ctx, n, req.Reanalyze); err != nil {
			if ctx.Err() != nil {
				return RebuildResult{}, ctx.Err()
			}
			logpkg.OrFallback(ctx, s.logger).Warn("Rebuild embedding failed", zap.String("id", n.ID()), zap.Error(err))
			res.Failed++
			res.Failures = append(res.Failures, n.ID())
			continue
		}
		updated = append(updated, *n)
	}

	if err := s.repo.SaveMany(ctx, updated); err != nil {
		return RebuildResult{}, fmt.Errorf("save rebuilt notes: %w", err)
	}
	res.Updated = len(updated)

	if req.BatchSize > 0 && len(notes) == req.BatchSize {
		res.NextCursor = notes[len(notes)-1].ID()
	}
	return res, nil
}

func (s *Service) rebuildOne(ctx context.Context, n *domnote.Note, reanalyze bool) error {
	anon := s.analyzer.Anonymizer()
	now := s.now()
	meta := n.Meta()

	var text, title, summary string
	var tags []string
	if reanalyze {
		an := s.analyzer.Analyze(ctx, n.Content())
		analyzed := an.Result.Meta()
		mergeAnalysis(&meta, analyzed, s.analyzer.Categories())
		if short := domnote.BuildShortTitle(&analyzed, n.Content(), meta.Title, false, s.analyzer.ShortTitleMax()); short != "" {
			meta.ShortTitle = short
		}
		text, title, summary, tags = an.Text, an.Anonymized.Title, an.Anonymized.Summary, an.Anonymized.Tags
	} else {
		if meta.ShortTitle == "" {
			meta.ShortTitle = domnote.BuildShortTitle(nil, n.Content(), meta.Title, true, s.analyzer.ShortTitleMax())
		}
		text, _ = anon.Anonymize(n.Content())
		title, _ = anon.Anonymize(meta.Title)
		summary, _ = anon.Anonymize(meta.Summary)
		for _, t := range domnote.NormalizeTags(meta.Tags) {
			at, _ := anon.Anonymize(t)
			tags = append(tags, at)
		}
	}

	vec, err := s.embed(ctx, domnote.EmbeddingSource(text, title, summary, tags))
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return errors.New("empty embedding")
	}
	n.SetMeta(meta, now)
	n.SetEmbedding(vec)
	return nil
}

// embed returns nil without error when AI is off.
func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil || !s.analyzer.Enabled() {
		return nil, nil
	}
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed note: %w", err)
	}
	return res.Embedding, nil
}
