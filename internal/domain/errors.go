package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrNoteNotFound signals a missing note.
	ErrNoteNotFound = errors.New("note not found")
	// ErrInvalidRequest signals a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAIDisabled signals an operation that needs AI while it is switched off.
	ErrAIDisabled = errors.New("AI is disabled")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrAIQuotaExceeded signals an exhausted token budget.
	ErrAIQuotaExceeded = errors.New("AI token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure or an unusable reply.
	ErrCompletionProviderError = errors.New("completion provider error")
)
