package chi

import (
	"net/http"

	domusage "github.com/kailas-cloud/vecnote/internal/domain/usage"
	healthuc "github.com/kailas-cloud/vecnote/internal/usecase/health"
)

// GetUsage handles GET /usage?period=day|month|total.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, ok := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be one of day, month, total")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period()),
		Provider:      report.Provider(),
		PeriodStartAt: timePtr(report.PeriodStart()),
		PeriodEndAt:   timePtr(report.PeriodEnd()),
		TokensUsed:    report.TokensUsed(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        timePtr(b.ResetsAt()),
		},
	})
}

// HealthCheck handles GET /health. Anything but healthy is a 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}
