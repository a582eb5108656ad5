// Package budget enforces daily and monthly token limits per model provider.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/metrics"
)

// Action defines behavior when the budget is spent.
type Action string

const (
	// ActionWarn logs and lets the request through.
	ActionWarn Action = "warn"
	// ActionReject blocks the request with domain.ErrBudgetExceeded.
	ActionReject Action = "reject"
)

// ParseAction maps config strings; anything unknown is warn.
func ParseAction(s string) Action {
	if Action(s) == ActionReject {
		return ActionReject
	}
	return ActionWarn
}

// Store persists counters. IncrBy may be called repeatedly for the same key.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Tracker keeps counters in memory for the hot path and writes behind to Store.
type Tracker struct {
	mu           sync.Mutex
	provider     string
	dailyLimit   int64
	monthlyLimit int64
	action       Action
	dailyUsed    int64
	monthlyUsed  int64
	day          time.Time
	month        time.Time
	store        Store
	now          func() time.Time
	logger       *zap.Logger
}

// NewTracker creates a tracker. A zero limit means unlimited.
func NewTracker(provider string, dailyLimit, monthlyLimit int64, action Action, logger *zap.Logger) *Tracker {
	t := &Tracker{
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	now := t.now()
	t.day, t.month = startOfDay(now), startOfMonth(now)
	return t
}

// WithStore attaches persistence and loads the current period's counters.
func (t *Tracker) WithStore(ctx context.Context, s Store) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = s
	now := t.now()
	if v, err := s.Get(ctx, t.dailyKey(now)); err == nil {
		t.dailyUsed = v
	} else {
		t.logger.Warn("Failed to load daily budget", zap.String("provider", t.provider), zap.Error(err))
	}
	if v, err := s.Get(ctx, t.monthlyKey(now)); err == nil {
		t.monthlyUsed = v
	} else {
		t.logger.Warn("Failed to load monthly budget", zap.String("provider", t.provider), zap.Error(err))
	}
	t.publish()
	return t
}

// Check reports whether another request may be made. Memory only.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roll()
	daily := t.dailyLimit > 0 && t.dailyUsed >= t.dailyLimit
	monthly := t.monthlyLimit > 0 && t.monthlyUsed >= t.monthlyLimit
	if !daily && !monthly {
		return nil
	}
	if t.action == ActionReject {
		return fmt.Errorf("%s: %w", t.provider, domain.ErrBudgetExceeded)
	}
	t.logger.Warn("Token budget exceeded",
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("daily_limit", t.dailyLimit),
		zap.Int64("monthly_used", t.monthlyUsed),
		zap.Int64("monthly_limit", t.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens and persists them with a short background deadline.
func (t *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}
	t.mu.Lock()
	t.roll()
	t.dailyUsed += tokens
	t.monthlyUsed += tokens
	t.publish()
	s := t.store
	now := t.now()
	dailyKey, monthlyKey := t.dailyKey(now), t.monthlyKey(now)
	t.mu.Unlock()

	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.IncrBy(ctx, dailyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := s.IncrBy(ctx, monthlyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Provider     string
	DailyLimit   int64
	DailyUsed    int64
	MonthlyLimit int64
	MonthlyUsed  int64
}

// Snapshot returns the current counters after any period rollover.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roll()
	return Snapshot{
		Provider:     t.provider,
		DailyLimit:   t.dailyLimit,
		DailyUsed:    t.dailyUsed,
		MonthlyLimit: t.monthlyLimit,
		MonthlyUsed:  t.monthlyUsed,
	}
}

// Remaining returns tokens left today and this month; -1 means unlimited.
func (t *Tracker) Remaining() (daily, monthly int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roll()
	return remaining(t.dailyLimit, t.dailyUsed), remaining(t.monthlyLimit, t.monthlyUsed)
}

func (t *Tracker) publish() {
	g := metrics.BudgetTokensRemaining
	g.WithLabelValues(t.provider, "daily").Set(float64(remaining(t.dailyLimit, t.dailyUsed)))
	g.WithLabelValues(t.provider, "monthly").Set(float64(remaining(t.monthlyLimit, t.monthlyUsed)))
}

// roll zeroes counters when the day or month changes. Caller holds mu.
func (t *Tracker) roll() {
	now := t.now()
	if d := startOfDay(now); d.After(t.day) {
		t.dailyUsed = 0
		t.day = d
	}
	if m := startOfMonth(now); m.After(t.month) {
		t.monthlyUsed = 0
		t.month = m
	}
}

func (t *Tracker) dailyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, t.provider, now.Format(time.DateOnly))
}

func (t *Tracker) monthlyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", domain.KeyPrefix, t.provider, now.Format("2006-01"))
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
