package budget

import "time"

// Budget is a snapshot of the AI token budget for one period.
type Budget struct {
	tokensLimit     int64
	tokensRemaining int64
	isExhausted     bool
	resetsAt        time.Time
}

// New creates a Budget snapshot. A zero limit means unlimited; remaining is
// then reported as -1.
func New(limit, remaining int64, isExhausted bool, resetsAt time.Time) Budget {
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: remaining,
		isExhausted:     isExhausted,
		resetsAt:        resetsAt,
	}
}

// TokensLimit returns the token cap.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// ResetsAt returns when the period rolls over; zero when it never does.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }

// Unlimited reports whether no cap is configured.
func (b Budget) Unlimited() bool { return b.tokensLimit == 0 }
