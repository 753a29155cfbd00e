package domain

import "context"

type aiUsageKey struct{}

// AIUsage collects provider token usage for a single HTTP request.
// The handler puts it into the context, the AI decorators add to it and the
// handler reports it in response headers.
type AIUsage struct {
	EmbeddingTokens  int
	CompletionTokens int
	Used             bool // true once any provider was called, even on a cache hit
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *AIUsage) {
	u := &AIUsage{}
	return context.WithValue(ctx, aiUsageKey{}, u), u
}

// UsageFromContext returns the collector, or nil when none was installed.
func UsageFromContext(ctx context.Context) *AIUsage {
	u, _ := ctx.Value(aiUsageKey{}).(*AIUsage)
	return u
}

// AddEmbeddingTokens records embedding tokens. Safe on a nil receiver.
func (u *AIUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddCompletionTokens records completion tokens. Safe on a nil receiver.
func (u *AIUsage) AddCompletionTokens(n int) {
	if u != nil {
		u.CompletionTokens += n
		u.Used = true
	}
}

// TotalTokens returns all tokens recorded so far.
func (u *AIUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	return u.EmbeddingTokens + u.CompletionTokens
}
