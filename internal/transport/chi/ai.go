package chi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/domain"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
)

// Anonymize handles POST /api/anonymize. It shows what a provider would see
// for a text without calling one.
func (s *Server) Anonymize(w http.ResponseWriter, r *http.Request) {
	var req AnonymizeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return
	}

	anonymized, mapping := s.anonymizer.Anonymize(req.Text)
	writeJSON(w, http.StatusOK, AnonymizeResponse{
		Anonymized:   anonymized,
		Placeholders: mapping.Len(),
		Sensitive:    s.anonymizer.DetectSensitive(req.Text),
		Entities:     s.anonymizer.ExtractEntities(req.Text),
	})
}

// Ask handles POST /api/ai/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.assistant.Ask(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:  res.Answer,
		Matches: notesToResponse(res.Matches),
	})
}

// Summarize handles POST /api/ai/summarize.
func (s *Server) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	summary, err := s.assistant.Summarize(r.Context(), req.Days)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
}

// SuggestTaxonomy handles POST /api/taxonomy/suggest. A provider failure
// still returns the clusters, with the error in the body.
func (s *Server) SuggestTaxonomy(w http.ResponseWriter, r *http.Request) {
	res, err := s.taxonomy.Suggest(r.Context())
	if err != nil && (res.Clusters == nil || !errors.Is(err, domain.ErrCompletionProviderError)) {
		s.handleDomainError(w, r, err)
		return
	}

	resp := TaxonomyResponse{Clusters: res.Clusters, Members: res.Members}
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("Taxonomy suggestion failed", zap.Error(err))
		resp.Error = safeDomainMessage(err)
	} else {
		resp.Taxonomy = &res.Taxonomy
	}

	setUsageHeaders(w, r)
	writeJSON(w, http.StatusOK, resp)
}
