package fanout

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

// --- Mocks ---

type mockProvider struct {
	name     string
	searchFn func(ctx context.Context, term string) ([]record.Record, error)

	mu    sync.Mutex
	terms []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(ctx context.Context, term string) ([]record.Record, error) {
	m.mu.Lock()
	m.terms = append(m.terms, term)
	m.mu.Unlock()
	if m.searchFn == nil {
		return nil, nil
	}
	return m.searchFn(ctx, term)
}

func (m *mockProvider) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.terms...)
}

// optionalProvider adds the Configured hook.
type optionalProvider struct {
	mockProvider
	configured bool
}

func (o *optionalProvider) Configured() bool { return o.configured }

// --- Helpers ---

func returning(headlines ...string) func(context.Context, string) ([]record.Record, error) {
	return func(_ context.Context, _ string) ([]record.Record, error) {
		out := make([]record.Record, len(headlines))
		for i, h := range headlines {
			out[i] = record.New(h, "Publisher", "", "", "", "")
		}
		return out, nil
	}
}

func blocking(ctx context.Context, _ string) ([]record.Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestAdapter(t *testing.T, p Provider, timeout time.Duration) *Adapter {
	t.Helper()
	return NewAdapter(p, AdapterOptions{Timeout: timeout, TermsPerSource: 3}, zap.NewNop())
}

func mustQuery(t *testing.T, subject string) query.Query {
	t.Helper()
	q, err := query.New(subject, query.Individual, "", nil)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}
