package usage

import (
	"time"

	"github.com/kailas-cloud/vecnote/internal/domain/usage/budget"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod maps a query value to a Period. Empty selects the day.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, true
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, true
	default:
		return "", false
	}
}

// Report is the AI token usage for a time period.
type Report struct {
	period      Period
	periodStart time.Time
	periodEnd   time.Time
	provider    string
	tokensUsed  int64
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, provider string, tokensUsed int64, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		tokensUsed:  tokensUsed,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start; zero for PeriodTotal.
func (r *Report) PeriodStart() time.Time { return r.periodStart }

// PeriodEnd returns the period end; zero for PeriodTotal.
func (r *Report) PeriodEnd() time.Time { return r.periodEnd }

// Provider returns the provider the budget is kept for.
func (r *Report) Provider() string { return r.provider }

// TokensUsed returns tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
