package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/domain"
	logpkg "github.com/kailas-cloud/vecnote/internal/logger"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeNotFound                ErrorCode = "not_found"
	CodeNoteNotFound            ErrorCode = "note_not_found"
	CodeAIDisabled              ErrorCode = "ai_disabled"
	CodeRateLimited             ErrorCode = "rate_limited"
	CodeQuotaExceeded           ErrorCode = "ai_quota_exceeded"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeCompletionProviderError ErrorCode = "completion_provider_error"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the validation detail for client errors and the
// bare sentinel text otherwise, so provider internals never reach the client.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNoteNotFound,
		domain.ErrNotFound,
		domain.ErrAIDisabled,
		domain.ErrRateLimited,
		domain.ErrAIQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logpkg.FromContext(r.Context()).Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
