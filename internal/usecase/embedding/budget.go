package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/domain"
	"github.com/kailas-cloud/vecnote/internal/metrics"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// Persisted counters outlive their period a little so a late reader still sees them.
const (
	dailyKeyTTL   = 48 * time.Hour
	monthlyKeyTTL = 62 * 24 * time.Hour
	persistWait   = 2 * time.Second
)

// BudgetStore is the persistence interface for budget counters.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetReport is a point-in-time view of the budget. Remaining is -1 when
// the period is unlimited.
type BudgetReport struct {
	Provider         string       `json:"provider"`
	Action           BudgetAction `json:"action"`
	DailyUsed        int64        `json:"daily_used"`
	DailyLimit       int64        `json:"daily_limit"`
	DailyRemaining   int64        `json:"daily_remaining"`
	MonthlyUsed      int64        `json:"monthly_used"`
	MonthlyLimit     int64        `json:"monthly_limit"`
	MonthlyRemaining int64        `json:"monthly_remaining"`
	DayResetsAt      time.Time    `json:"day_resets_at"`
	MonthResetsAt    time.Time    `json:"month_resets_at"`
}

// BudgetTracker is an in-memory token budget tracker with optional persistence.
// Embedding and completion calls share one tracker, so one limit covers all
// provider traffic. Check is in-memory only; Record writes behind to the store.
type BudgetTracker struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	action         BudgetAction
	provider       string
	keyPrefix      string
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          BudgetStore
	now            func() time.Time
	logger         *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits. A zero
// limit means unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		provider:     provider,
		keyPrefix:    domain.DefaultKeyPrefix,
		now:          time.Now,
		logger:       logger,
	}
	now := b.now().UTC()
	b.lastDayReset = truncateToDay(now)
	b.lastMonthReset = truncateToMonth(now)
	return b
}

// WithKeyPrefix namespaces persisted counters. Call before WithStore.
func (b *BudgetTracker) WithKeyPrefix(prefix string) *BudgetTracker {
	if prefix != "" {
		b.keyPrefix = prefix
	}
	return b
}

// WithStore attaches a persistence store and loads current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.store = store
	b.loadFromStore(ctx)
	return b
}

func (b *BudgetTracker) loadFromStore(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now().UTC()
	if val, err := b.store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = val
	} else {
		b.logger.Warn("Failed to load daily budget from store", zap.Error(err))
	}
	if val, err := b.store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthlyUsed = val
	} else {
		b.logger.Warn("Failed to load monthly budget from store", zap.Error(err))
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.keyPrefix, b.provider, t.Format(time.DateOnly))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.keyPrefix, b.provider, t.Format("2006-01"))
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()

	dailyExceeded := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyExceeded := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrAIQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record registers consumed tokens after a request, updates the remaining
// budget gauges and writes behind to the store (if attached).
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.resetIfNeeded()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	dailyRemaining := remaining(b.dailyLimit, b.dailyUsed)
	monthlyRemaining := remaining(b.monthlyLimit, b.monthlyUsed)
	store := b.store
	now := b.now().UTC()
	dailyKey := b.dailyKey(now)
	monthlyKey := b.monthlyKey(now)
	b.mu.Unlock()

	metrics.AIBudgetTokensRemaining.WithLabelValues(b.provider, "daily").Set(float64(dailyRemaining))
	metrics.AIBudgetTokensRemaining.WithLabelValues(b.provider, "monthly").Set(float64(monthlyRemaining))

	if store == nil {
		return
	}

	// Detached from the request context so a cancelled request still persists its usage.
	ctx, cancel := context.WithTimeout(context.Background(), persistWait)
	defer cancel()

	if _, err := store.IncrBy(ctx, dailyKey, tokens, dailyKeyTTL); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if _, err := store.IncrBy(ctx, monthlyKey, tokens, monthlyKeyTTL); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Provider returns the provider label the budget is kept for.
func (b *BudgetTracker) Provider() string { return b.provider }

// DailyLimit returns the daily token cap (0 if unlimited).
func (b *BudgetTracker) DailyLimit() int64 { return b.dailyLimit }

// MonthlyLimit returns the monthly token cap (0 if unlimited).
func (b *BudgetTracker) MonthlyLimit() int64 { return b.monthlyLimit }

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return remaining(b.dailyLimit, b.dailyUsed)
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return remaining(b.monthlyLimit, b.monthlyUsed)
}

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.dailyUsed
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return b.monthlyUsed
}

// Report returns a consistent snapshot of usage and limits.
func (b *BudgetTracker) Report() BudgetReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfNeeded()
	return BudgetReport{
		Provider:         b.provider,
		Action:           b.action,
		DailyUsed:        b.dailyUsed,
		DailyLimit:       b.dailyLimit,
		DailyRemaining:   remaining(b.dailyLimit, b.dailyUsed),
		MonthlyUsed:      b.monthlyUsed,
		MonthlyLimit:     b.monthlyLimit,
		MonthlyRemaining: remaining(b.monthlyLimit, b.monthlyUsed),
		DayResetsAt:      b.lastDayReset.AddDate(0, 0, 1),
		MonthResetsAt:    b.lastMonthReset.AddDate(0, 1, 0),
	}
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (b *BudgetTracker) resetIfNeeded() {
	now := b.now().UTC()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(b.lastDayReset) {
		b.dailyUsed = 0
		b.lastDayReset = today
	}
	if thisMonth.After(b.lastMonthReset) {
		b.monthlyUsed = 0
		b.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
