package chi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	noteuc "github.com/kailas-cloud/vecnote/internal/usecase/note"
	searchuc "github.com/kailas-cloud/vecnote/internal/usecase/search"
)

// CreateNote handles POST /api/notes.
func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.notes.Create(r.Context(), noteuc.Input{
		Content:  req.Content,
		Title:    req.Title,
		Category: req.Category,
		Folder:   req.Folder,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusCreated, noteToResponse(&n))
}

// ListNotes handles GET /api/notes. A non-empty q switches to ranked search.
func (s *Server) ListNotes(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if p.query != "" {
		s.searchNotes(w, r, p)
		return
	}

	res, err := s.notes.List(r.Context(), noteuc.ListRequest{
		Page:             p.page,
		PageSize:         p.pageSize,
		Category:         p.category,
		Folder:           p.folder,
		Tag:              p.tag,
		TimeStart:        p.timeStart,
		TimeEnd:          p.timeEnd,
		IncludeCompleted: p.includeCompleted,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NoteListResponse{
		Items:    notesToResponse(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

func (s *Server) searchNotes(w http.ResponseWriter, r *http.Request, p listParams) {
	res, err := s.search.Search(r.Context(), searchuc.Request{
		Query:            p.query,
		Page:             p.page,
		PageSize:         p.pageSize,
		Category:         p.category,
		Folder:           p.folder,
		Tag:              p.tag,
		TimeStart:        p.timeStart,
		TimeEnd:          p.timeEnd,
		IncludeCompleted: p.includeCompleted,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, NoteListResponse{
		Items:    hitsToResponse(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
		Intent:   intentToResponse(res.Intent),
	})
}

// Timeline handles GET /api/notes/timeline.
func (s *Server) Timeline(w http.ResponseWriter, r *http.Request) {
	p, err := parseListParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	group := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("group")))
	if group == "" {
		group = noteuc.GroupMonth
	}

	buckets, err := s.notes.Timeline(r.Context(), group, noteuc.ListRequest{
		Category:         p.category,
		Folder:           p.folder,
		Tag:              p.tag,
		TimeStart:        p.timeStart,
		TimeEnd:          p.timeEnd,
		IncludeCompleted: p.includeCompleted,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TimelineResponse{Group: group, Items: buckets})
}

// GetNote handles GET /api/notes/{id}.
func (s *Server) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noteToResponse(&n))
}

// UpdateNote handles PUT /api/notes/{id}.
func (s *Server) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.notes.Update(r.Context(), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, noteToResponse(&n))
}

// DeleteNote handles DELETE /api/notes/{id}.
func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RelatedNotes handles GET /api/notes/{id}/related.
func (s *Server) RelatedNotes(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	includeCompleted, err := boolParam(r, "include_completed")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.search.Related(r.Context(), chi.URLParam(r, "id"), limit, includeCompleted)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RelatedResponse{
		Items: hitsToResponse(res.Items),
		Total: res.Total,
		Mode:  string(res.Mode),
	})
}

// RebuildEmbeddings handles POST /api/notes/rebuild-embeddings.
func (s *Server) RebuildEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.notes.RebuildEmbeddings(r.Context(), noteuc.RebuildRequest{
		Cursor:    req.Cursor,
		BatchSize: req.BatchSize,
		Reanalyze: req.Reanalyze,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if res.Failures == nil {
		res.Failures = []string{}
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, res)
}
