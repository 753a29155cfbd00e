package budget

import (
	"testing"
	"time"
)

func TestBudget(t *testing.T) {
	resets := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	b := New(100000, 0, true, resets)

	if b.TokensLimit() != 100000 {
		t.Errorf("TokensLimit() = %d", b.TokensLimit())
	}
	if b.TokensRemaining() != 0 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
	if !b.IsExhausted() {
		t.Error("expected exhausted")
	}
	if !b.ResetsAt().Equal(resets) {
		t.Errorf("ResetsAt() = %v", b.ResetsAt())
	}
	if b.Unlimited() {
		t.Error("limited budget reported as unlimited")
	}
	if !New(0, -1, false, time.Time{}).Unlimited() {
		t.Error("zero limit must be unlimited")
	}
}
