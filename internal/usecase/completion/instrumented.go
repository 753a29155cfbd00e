// Package completion holds the decorators around the chat completion
// provider: budget, usage accounting and rate limiting.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedCompleter wraps a Completer with budget enforcement, per-request
// usage accounting and logging. Prompts are never logged.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil.
func NewInstrumentedCompleter(
	inner domain.Completer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks budget, delegates and records token usage.
func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Warn("Budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := c.inner.Complete(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, providerError(err)
	}

	domain.UsageFromContext(ctx).AddCompletionTokens(res.TotalTokens)
	if c.budget != nil {
		c.budget.Record(int64(res.TotalTokens))
	}

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("reply_chars", len(res.Text)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// HealthCheck forwards to the inner completer when it supports health checks.
func (c *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func providerError(err error) error {
	if errors.Is(err, domain.ErrCompletionProviderError) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrAIQuotaExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCompletionProviderError, err)
}
