package completion

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecnote/internal/domain"
)

// RateLimitedCompleter caps the request rate to the completion provider.
// Callers wait for a token up to maxWait; past that the call fails with
// domain.ErrRateLimited and the caller falls back.
type RateLimitedCompleter struct {
	inner   domain.Completer
	limiter *rate.Limiter
	maxWait time.Duration
}

// NewRateLimitedCompleter allows perMinute requests per minute with the given
// burst. A non-positive perMinute disables limiting.
func NewRateLimitedCompleter(inner domain.Completer, perMinute, burst int, maxWait time.Duration) *RateLimitedCompleter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedCompleter{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		maxWait: maxWait,
	}
}

// Complete waits for a rate token, then delegates.
func (c *RateLimitedCompleter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	if err := c.wait(ctx); err != nil {
		return domain.CompletionResult{}, err
	}
	return c.inner.Complete(ctx, prompt)
}

func (c *RateLimitedCompleter) wait(ctx context.Context) error {
	if c.maxWait <= 0 {
		if !c.limiter.Allow() {
			return domain.ErrRateLimited
		}
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()
	if err := c.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wait for rate limit: %w", ctx.Err())
		}
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// HealthCheck forwards to the inner completer without consuming a token.
func (c *RateLimitedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
