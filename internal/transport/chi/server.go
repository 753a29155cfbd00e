// Package chi exposes the notes API over HTTP on a chi router.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/anonymize"
	"github.com/kailas-cloud/vecnote/internal/domain"
	"github.com/kailas-cloud/vecnote/internal/metrics"
	assistantuc "github.com/kailas-cloud/vecnote/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/vecnote/internal/usecase/health"
	noteuc "github.com/kailas-cloud/vecnote/internal/usecase/note"
	searchuc "github.com/kailas-cloud/vecnote/internal/usecase/search"
	taxonomyuc "github.com/kailas-cloud/vecnote/internal/usecase/taxonomy"
	usageuc "github.com/kailas-cloud/vecnote/internal/usecase/usage"
)

// maxBodyBytes caps request bodies; notes are plain text.
const maxBodyBytes = 1 << 20

// Services groups the use cases the server dispatches to.
type Services struct {
	Notes      *noteuc.Service
	Search     *searchuc.Service
	Assistant  *assistantuc.Service
	Taxonomy   *taxonomyuc.Service
	Usage      *usageuc.Service
	Health     *healthuc.Service
	Anonymizer *anonymize.Anonymizer
}

// Server implements the HTTP handlers.
type Server struct {
	notes         *noteuc.Service
	search        *searchuc.Service
	assistant     *assistantuc.Service
	taxonomy      *taxonomyuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	anonymizer    *anonymize.Anonymizer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		notes:      svc.Notes,
		search:     svc.Search,
		assistant:  svc.Assistant,
		taxonomy:   svc.Taxonomy,
		usage:      svc.Usage,
		health:     svc.Health,
		anonymizer: svc.Anonymizer,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoteNotFound, http.StatusNotFound, CodeNoteNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrAIDisabled, http.StatusBadRequest, CodeAIDisabled),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrAIQuotaExceeded, http.StatusTooManyRequests, CodeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeCompletionProviderError),
	}
	return s
}

// Router builds the chi router with the full middleware stack. An empty
// apiKeys list disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.Use(limitBody(maxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Post("/", s.CreateNote)
			r.Get("/", s.ListNotes)
			r.Get("/timeline", s.Timeline)
			r.Post("/rebuild-embeddings", s.RebuildEmbeddings)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetNote)
				r.Put("/", s.UpdateNote)
				r.Delete("/", s.DeleteNote)
				r.Get("/related", s.RelatedNotes)
			})
		})
		r.Post("/anonymize", s.Anonymize)
		r.Post("/ai/ask", s.Ask)
		r.Post("/ai/summarize", s.Summarize)
		r.Post("/taxonomy/suggest", s.SuggestTaxonomy)
	})

	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}
