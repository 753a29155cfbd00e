package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/vecnote/internal/domain/usage"
)

// --- Mock ---

type mockBudgetReader struct {
	dailyLimit       int64
	monthlyLimit     int64
	dailyUsed        int64
	monthlyUsed      int64
	remainingDaily   int64
	remainingMonthly int64
}

func (m *mockBudgetReader) Provider() string        { return "openai" }
func (m *mockBudgetReader) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudgetReader) MonthlyLimit() int64     { return m.monthlyLimit }
func (m *mockBudgetReader) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudgetReader) MonthlyUsed() int64      { return m.monthlyUsed }
func (m *mockBudgetReader) RemainingDaily() int64   { return m.remainingDaily }
func (m *mockBudgetReader) RemainingMonthly() int64 { return m.remainingMonthly }

var fixedNow = time.Date(2026, 3, 7, 15, 4, 5, 0, time.UTC)

func newService(br BudgetReader) *Service {
	s := New(br)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit:       10000,
		dailyUsed:        3000,
		remainingDaily:   7000,
		monthlyLimit:     100000,
		monthlyUsed:      50000,
		remainingMonthly: 50000,
	}
	r := newService(br).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	dayStart := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart().Equal(dayStart) {
		t.Errorf("expected period start %v, got %v", dayStart, r.PeriodStart())
	}
	if !r.PeriodEnd().Equal(dayStart.AddDate(0, 0, 1)) {
		t.Errorf("unexpected period end %v", r.PeriodEnd())
	}
	if r.Provider() != "openai" {
		t.Errorf("expected provider openai, got %q", r.Provider())
	}
	if r.Budget().TokensLimit() != 10000 {
		t.Errorf("expected limit 10000, got %d", r.Budget().TokensLimit())
	}
	if r.Budget().TokensRemaining() != 7000 {
		t.Errorf("expected remaining 7000, got %d", r.Budget().TokensRemaining())
	}
	if r.Budget().IsExhausted() {
		t.Error("budget should not be exhausted")
	}
	if r.TokensUsed() != 3000 {
		t.Errorf("expected tokens 3000, got %d", r.TokensUsed())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		monthlyLimit:     100000,
		monthlyUsed:      80000,
		remainingMonthly: 20000,
	}
	r := newService(br).GetReport(context.Background(), domusage.PeriodMonth)

	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart().Equal(monthStart) {
		t.Errorf("expected period start %v, got %v", monthStart, r.PeriodStart())
	}
	if !r.PeriodEnd().Equal(monthStart.AddDate(0, 1, 0)) {
		t.Errorf("unexpected period end %v", r.PeriodEnd())
	}
	if !r.Budget().ResetsAt().Equal(r.PeriodEnd()) {
		t.Errorf("budget should reset at period end, got %v", r.Budget().ResetsAt())
	}
	if r.Budget().TokensLimit() != 100000 {
		t.Errorf("expected limit 100000, got %d", r.Budget().TokensLimit())
	}
}

func TestGetReport_TotalPeriod(t *testing.T) {
	br := &mockBudgetReader{
		monthlyLimit:     100000,
		monthlyUsed:      100000,
		remainingMonthly: 0,
	}
	r := newService(br).GetReport(context.Background(), domusage.PeriodTotal)

	// total period has no boundaries
	if !r.PeriodStart().IsZero() || !r.PeriodEnd().IsZero() {
		t.Errorf("expected zero boundaries, got %v..%v", r.PeriodStart(), r.PeriodEnd())
	}
	if !r.Budget().IsExhausted() {
		t.Error("expected exhausted")
	}
}

func TestGetReport_NilBudgetReader(t *testing.T) {
	r := newService(nil).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Budget().Unlimited() {
		t.Errorf("expected unlimited, got limit %d", r.Budget().TokensLimit())
	}
	if r.Budget().TokensRemaining() != -1 {
		t.Errorf("expected remaining -1, got %d", r.Budget().TokensRemaining())
	}
	if r.Budget().IsExhausted() {
		t.Error("nil budget reader should not be exhausted")
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit:     5000,
		dailyUsed:      5000,
		remainingDaily: 0,
	}
	r := newService(br).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Budget().IsExhausted() {
		t.Error("budget should be exhausted when remaining is 0")
	}
}
