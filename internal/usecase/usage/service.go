// Package usage reports token consumption against the configured budgets.
package usage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/screener/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query parameter to a Period. Empty means month.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("%w: period must be \"day\" or \"month\", got %q", domain.ErrInvalidQuery, s)
	}
}

// ProviderUsage is one provider's line in a report. TokensLimit 0 means unlimited.
type ProviderUsage struct {
	Provider        string `json:"provider"`
	TokensUsed      int64  `json:"tokensUsed"`
	TokensLimit     int64  `json:"tokensLimit"`
	TokensRemaining int64  `json:"tokensRemaining"`
	Exhausted       bool   `json:"exhausted"`
}

// Report is a usage report for a time period.
type Report struct {
	Period      Period          `json:"period"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Providers   []ProviderUsage `json:"providers"`
}

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service. No readers means no budgets are configured.
func New(readers ...BudgetReader) *Service {
	return &Service{readers: readers, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now()
	var start, end time.Time
	switch period {
	case PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	default:
		period = PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	providers := make([]ProviderUsage, 0, len(s.readers))
	for _, r := range s.readers {
		snap := r.Snapshot()
		limit, used := snap.MonthlyLimit, snap.MonthlyUsed
		if period == PeriodDay {
			limit, used = snap.DailyLimit, snap.DailyUsed
		}
		u := ProviderUsage{Provider: snap.Provider, TokensUsed: used, TokensLimit: limit, TokensRemaining: -1}
		if limit > 0 {
			u.TokensRemaining = max(limit-used, 0)
			u.Exhausted = used >= limit
		}
		providers = append(providers, u)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Provider < providers[j].Provider })

	return Report{Period: period, PeriodStart: start, PeriodEnd: end, Providers: providers}
}
