package budget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	mu     sync.Mutex
	values map[string]int64
	getErr error
}

func newMockStore() *mockStore { return &mockStore{values: map[string]int64{}} }

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += val
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (int64, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

// --- Tests ---

func TestTracker_RejectWhenExceeded(t *testing.T) {
	tr := NewTracker("enrichment", 100, 0, ActionReject, zap.NewNop())
	tr.Record(100)

	if err := tr.Check(context.Background()); !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestTracker_WarnLetsThrough(t *testing.T) {
	tr := NewTracker("enrichment", 100, 0, ActionWarn, zap.NewNop())
	tr.Record(500)

	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("warn action must not block, got %v", err)
	}
}

func TestTracker_MonthlyReject(t *testing.T) {
	tr := NewTracker("embedding", 0, 50, ActionReject, zap.NewNop())
	tr.Record(50)

	if err := tr.Check(context.Background()); !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestTracker_Unlimited(t *testing.T) {
	tr := NewTracker("enrichment", 0, 0, ActionReject, zap.NewNop())
	tr.Record(1 << 40)

	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("unlimited budget blocked: %v", err)
	}
	if d, m := tr.Remaining(); d != -1 || m != -1 {
		t.Errorf("Remaining = %d/%d, want -1/-1", d, m)
	}
}

func TestTracker_Remaining(t *testing.T) {
	tr := NewTracker("enrichment", 1000, 10000, ActionWarn, zap.NewNop())
	tr.Record(300)

	d, m := tr.Remaining()
	if d != 700 || m != 9700 {
		t.Errorf("Remaining = %d/%d, want 700/9700", d, m)
	}

	tr.Record(5000)
	if d, _ := tr.Remaining(); d != 0 {
		t.Errorf("daily remaining should floor at 0, got %d", d)
	}
}

func TestTracker_DayRollover(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	tr := NewTracker("enrichment", 100, 1000, ActionReject, zap.NewNop())
	tr.now = func() time.Time { return now }
	tr.day, tr.month = startOfDay(now), startOfMonth(now)

	tr.Record(100)
	if err := tr.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before rollover")
	}

	now = now.Add(2 * time.Minute)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("daily counter should reset at midnight, got %v", err)
	}
	if _, m := tr.Remaining(); m != 900 {
		t.Errorf("monthly remaining = %d, want 900 (same month)", m)
	}
}

func TestTracker_PersistsAndLoads(t *testing.T) {
	s := newMockStore()
	fixed := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	tr := NewTracker("enrichment", 1000, 0, ActionWarn, zap.NewNop())
	tr.now = func() time.Time { return fixed }
	tr.WithStore(context.Background(), s)
	tr.Record(40)

	if got := s.values["screener:budget:enrichment:daily:2024-03-05"]; got != 40 {
		t.Errorf("persisted daily = %d, want 40", got)
	}
	if got := s.values["screener:budget:enrichment:monthly:2024-03"]; got != 40 {
		t.Errorf("persisted monthly = %d, want 40", got)
	}

	restarted := NewTracker("enrichment", 1000, 0, ActionWarn, zap.NewNop())
	restarted.now = func() time.Time { return fixed }
	restarted.WithStore(context.Background(), s)
	if d, _ := restarted.Remaining(); d != 960 {
		t.Errorf("restarted daily remaining = %d, want 960", d)
	}
}

func TestTracker_LoadFailureIsNotFatal(t *testing.T) {
	s := newMockStore()
	s.getErr = errors.New("down")

	tr := NewTracker("enrichment", 10, 0, ActionReject, zap.NewNop()).WithStore(context.Background(), s)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("unexpected %v", err)
	}
}

func TestTracker_ConcurrentRecord(t *testing.T) {
	tr := NewTracker("enrichment", 0, 0, ActionWarn, zap.NewNop())
	tr.dailyLimit = 1 << 20

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(2)
		}()
	}
	wg.Wait()

	if d, _ := tr.Remaining(); d != 1<<20-100 {
		t.Errorf("daily remaining = %d, want %d", d, 1<<20-100)
	}
}

func TestParseAction(t *testing.T) {
	if ParseAction("reject") != ActionReject || ParseAction("") != ActionWarn || ParseAction("bogus") != ActionWarn {
		t.Error("unexpected ParseAction mapping")
	}
}

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker("openai", 100, 1000, ActionWarn, zap.NewNop())
	tr.Record(40)

	s := tr.Snapshot()
	if s.Provider != "openai" || s.DailyUsed != 40 || s.MonthlyUsed != 40 || s.DailyLimit != 100 || s.MonthlyLimit != 1000 {
		t.Errorf("Snapshot = %+v", s)
	}
}
