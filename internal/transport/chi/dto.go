package chi

import (
	"time"

	"github.com/kailas-cloud/vecnote/internal/analysis"
	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/cluster"
	domnote "github.com/kailas-cloud/vecnote/internal/domain/note"
	noteuc "github.com/kailas-cloud/vecnote/internal/usecase/note"
	searchuc "github.com/kailas-cloud/vecnote/internal/usecase/search"
)

// CreateNoteRequest is the body of POST /api/notes.
type CreateNoteRequest struct {
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Folder   string `json:"folder,omitempty"`
}

// UpdateNoteRequest is the body of PUT /api/notes/{id}. Absent fields are
// left unchanged; reanalyze defaults to true.
type UpdateNoteRequest struct {
	Content    *string   `json:"content,omitempty"`
	Title      *string   `json:"title,omitempty"`
	ShortTitle *string   `json:"short_title,omitempty"`
	Category   *string   `json:"category,omitempty"`
	Folder     *string   `json:"folder,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Completed  *bool     `json:"completed,omitempty"`
	Pinned     *bool     `json:"pinned,omitempty"`
	Reanalyze  *bool     `json:"reanalyze,omitempty"`
}

func (r UpdateNoteRequest) toUpdate() noteuc.Update {
	return noteuc.Update{
		Content:    r.Content,
		Title:      r.Title,
		ShortTitle: r.ShortTitle,
		Category:   r.Category,
		Folder:     r.Folder,
		Tags:       r.Tags,
		Completed:  r.Completed,
		Pinned:     r.Pinned,
		Reanalyze:  r.Reanalyze == nil || *r.Reanalyze,
	}
}

// RebuildRequest is the body of POST /api/notes/rebuild-embeddings.
type RebuildRequest struct {
	Cursor    string `json:"cursor,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
	Reanalyze bool   `json:"reanalyze,omitempty"`
}

// NoteResponse is a note as returned by the API. Embeddings are never sent.
type NoteResponse struct {
	ID           string              `json:"id"`
	Content      string              `json:"content"`
	Folder       string              `json:"folder,omitempty"`
	Title        string              `json:"title,omitempty"`
	ShortTitle   string              `json:"short_title,omitempty"`
	Category     string              `json:"category"`
	Summary      string              `json:"summary,omitempty"`
	Tags         []string            `json:"tags"`
	Entities     map[string][]string `json:"entities"`
	Sensitivity  string              `json:"sensitivity"`
	Completed    bool                `json:"completed"`
	Pinned       bool                `json:"pinned"`
	PinnedAt     *time.Time          `json:"pinned_at,omitempty"`
	HasEmbedding bool                `json:"has_embedding"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Search       *SearchInfo         `json:"search_info,omitempty"`
}

// SearchInfo explains why a note matched.
type SearchInfo struct {
	MatchType  string   `json:"match_type"`
	Matched    []string `json:"matched_keywords"`
	Similarity float64  `json:"similarity"`
	Score      float64  `json:"score"`
}

// NoteListResponse is a page of notes.
type NoteListResponse struct {
	Items    []NoteResponse        `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Intent   *SearchIntentResponse `json:"intent,omitempty"`
}

// SearchIntentResponse is the parsed form of a search query.
type SearchIntentResponse struct {
	SemanticQuery string   `json:"semantic_query"`
	Keywords      []string `json:"keywords"`
	TimeStart     string   `json:"time_start,omitempty"`
	TimeEnd       string   `json:"time_end,omitempty"`
}

// RelatedResponse lists notes related to a note.
type RelatedResponse struct {
	Items []NoteResponse `json:"items"`
	Total int            `json:"total"`
	Mode  string         `json:"mode"`
}

// TimelineResponse counts notes per bucket.
type TimelineResponse struct {
	Group string                  `json:"group"`
	Items []noteuc.TimelineBucket `json:"items"`
}

// AnonymizeRequest is the body of POST /api/anonymize.
type AnonymizeRequest struct {
	Text string `json:"text"`
}

// AnonymizeResponse reports what the anonymizer would send to a provider.
// The mapping itself is never returned.
type AnonymizeResponse struct {
	Anonymized   string             `json:"anonymized"`
	Placeholders int                `json:"placeholders"`
	Sensitive    bool               `json:"sensitive"`
	Entities     anonymize.Entities `json:"entities"`
}

// AskRequest is the body of POST /api/ai/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is an answer and the notes it drew on.
type AskResponse struct {
	Answer  string         `json:"answer"`
	Matches []NoteResponse `json:"matches"`
}

// SummarizeRequest is the body of POST /api/ai/summarize.
type SummarizeRequest struct {
	Days int `json:"days,omitempty"`
}

// SummarizeResponse is a digest of recent notes.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// TaxonomyResponse is a taxonomy proposal. Taxonomy is nil and Error is set
// when the model could not produce one; clusters are always present.
type TaxonomyResponse struct {
	Taxonomy *analysis.Taxonomy `json:"taxonomy"`
	Clusters []cluster.Summary  `json:"clusters"`
	Members  map[int][]string   `json:"members"`
	Error    string             `json:"error,omitempty"`
}

// UsageResponse reports token consumption against the budget.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        BudgetStatus `json:"budget"`
}

// BudgetStatus is the budget part of UsageResponse. TokensRemaining is -1
// when unlimited.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func noteToResponse(n *domnote.Note) NoteResponse {
	meta := n.Meta()
	resp := NoteResponse{
		ID:           n.ID(),
		Content:      n.Content(),
		Folder:       n.Folder(),
		Title:        meta.Title,
		ShortTitle:   meta.ShortTitle,
		Category:     meta.Category,
		Summary:      meta.Summary,
		Tags:         meta.Tags,
		Entities:     meta.Entities,
		Sensitivity:  string(meta.Sensitivity),
		Completed:    n.Completed(),
		Pinned:       n.Pinned(),
		HasEmbedding: len(n.Embedding()) > 0,
		CreatedAt:    n.CreatedAt(),
		UpdatedAt:    n.UpdatedAt(),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.Entities == nil {
		resp.Entities = map[string][]string{}
	}
	if pinnedAt := n.PinnedAt(); !pinnedAt.IsZero() {
		resp.PinnedAt = &pinnedAt
	}
	return resp
}

func notesToResponse(notes []domnote.Note) []NoteResponse {
	out := make([]NoteResponse, len(notes))
	for i := range notes {
		out[i] = noteToResponse(&notes[i])
	}
	return out
}

func hitsToResponse(hits []searchuc.Hit) []NoteResponse {
	out := make([]NoteResponse, len(hits))
	for i := range hits {
		h := &hits[i]
		resp := noteToResponse(&h.Note)
		matched := h.Matched
		if matched == nil {
			matched = []string{}
		}
		resp.Search = &SearchInfo{
			MatchType:  string(h.MatchType),
			Matched:    matched,
			Similarity: h.Similarity,
			Score:      h.Score,
		}
		out[i] = resp
	}
	return out
}

func intentToResponse(in analysis.SearchIntent) *SearchIntentResponse {
	return &SearchIntentResponse{
		SemanticQuery: in.SemanticQuery,
		Keywords:      in.Keywords,
		TimeStart:     in.TimeStart,
		TimeEnd:       in.TimeEnd,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
