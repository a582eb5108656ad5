package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

func TestCoordinator_PartialFailureIsolation(t *testing.T) {
	adapters := []*Adapter{
		newTestAdapter(t, &mockProvider{name: "s1", searchFn: returning("one")}, time.Second),
		newTestAdapter(t, &mockProvider{name: "s2", searchFn: blocking}, 20*time.Millisecond),
		newTestAdapter(t, &mockProvider{name: "s3", searchFn: returning("three")}, time.Second),
		newTestAdapter(t, &mockProvider{name: "s4", searchFn: returning("four")}, time.Second),
	}
	c := NewCoordinator(adapters, query.TermOptions{MaxTerms: 1}, zap.NewNop())

	res, err := c.Run(context.Background(), mustQuery(t, "Jane Doe"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"one", "three", "four"}
	if len(res.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(res.Records), len(want))
	}
	for i, h := range want {
		if res.Records[i].Headline != h {
			t.Errorf("record[%d] = %q, want %q", i, res.Records[i].Headline, h)
		}
	}

	for i, o := range res.Outcomes {
		wantErr := i == 1
		if (o.Err != "") != wantErr {
			t.Errorf("outcome %s err = %q, want error=%v", o.Source, o.Err, wantErr)
		}
	}
	if res.Outcomes[1].Status != outcome.StatusError {
		t.Errorf("s2 status = %q", res.Outcomes[1].Status)
	}
}

func TestCoordinator_RegistrationOrderNotCompletionOrder(t *testing.T) {
	slow := func(ctx context.Context, term string) ([]record.Record, error) {
		time.Sleep(30 * time.Millisecond)
		return returning("slow")(ctx, term)
	}
	adapters := []*Adapter{
		newTestAdapter(t, &mockProvider{name: "a", searchFn: slow}, time.Second),
		newTestAdapter(t, &mockProvider{name: "b", searchFn: returning("fast")}, time.Second),
	}
	c := NewCoordinator(adapters, query.TermOptions{MaxTerms: 1}, zap.NewNop())

	res, err := c.Run(context.Background(), mustQuery(t, "Acme"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Records[0].Headline != "slow" || res.Records[1].Headline != "fast" {
		t.Errorf("records out of registration order: %q, %q", res.Records[0].Headline, res.Records[1].Headline)
	}
}

func TestCoordinator_RunsConcurrently(t *testing.T) {
	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	// Each provider waits until all n are in flight; sequential execution would time out.
	barrier := func(ctx context.Context, term string) ([]record.Record, error) {
		started.Done()
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return returning("x")(ctx, term)
	}
	go func() {
		started.Wait()
		close(release)
	}()

	adapters := make([]*Adapter, n)
	for i := range adapters {
		adapters[i] = newTestAdapter(t, &mockProvider{name: string(rune('a' + i)), searchFn: barrier}, time.Second)
	}
	c := NewCoordinator(adapters, query.TermOptions{MaxTerms: 1}, zap.NewNop())

	res, err := c.Run(context.Background(), mustQuery(t, "Acme"))
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range res.Outcomes {
		if o.Status != outcome.StatusOK {
			t.Errorf("%s: %q %s", o.Source, o.Status, o.Err)
		}
	}
}

func TestCoordinator_NotConfiguredSources(t *testing.T) {
	opt := &optionalProvider{mockProvider: mockProvider{name: "gnews"}}
	adapters := []*Adapter{
		newTestAdapter(t, &mockProvider{name: "google_news", searchFn: returning("x")}, time.Second),
		newTestAdapter(t, opt, time.Second),
	}
	c := NewCoordinator(adapters, query.TermOptions{}, zap.NewNop())

	res, err := c.Run(context.Background(), mustQuery(t, "Acme"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcomes[1].Status != outcome.StatusNotConfigured {
		t.Errorf("gnews status = %q", res.Outcomes[1].Status)
	}
	// Keyword variant plus plain subject: two terms, one record each.
	if len(res.Records) != 2 {
		t.Errorf("got %d records, want 2", len(res.Records))
	}
}

func TestCoordinator_InvalidQuery(t *testing.T) {
	p := &mockProvider{name: "s1"}
	c := NewCoordinator([]*Adapter{newTestAdapter(t, p, time.Second)}, query.TermOptions{}, zap.NewNop())

	_, err := c.Run(context.Background(), query.Query{})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if len(p.calls()) != 0 {
		t.Error("no source may be called for an invalid query")
	}
}

func TestCoordinator_CallerCancellation(t *testing.T) {
	adapters := []*Adapter{
		newTestAdapter(t, &mockProvider{name: "s1", searchFn: blocking}, time.Minute),
		newTestAdapter(t, &mockProvider{name: "s2", searchFn: blocking}, time.Minute),
	}
	c := NewCoordinator(adapters, query.TermOptions{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := c.Run(ctx, mustQuery(t, "Acme"))
	if err != nil {
		t.Fatalf("cancellation must not surface as an error: %v", err)
	}
	for _, o := range res.Outcomes {
		if o.Status != outcome.StatusError {
			t.Errorf("%s status = %q, want error", o.Source, o.Status)
		}
	}
}

func TestCoordinator_Sources(t *testing.T) {
	c := NewCoordinator([]*Adapter{
		newTestAdapter(t, &mockProvider{name: "x"}, time.Second),
		newTestAdapter(t, &mockProvider{name: "y"}, time.Second),
	}, query.TermOptions{}, zap.NewNop())

	if got := c.Sources(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Sources = %v", got)
	}
}

func TestCoordinator_Configured(t *testing.T) {
	c := NewCoordinator([]*Adapter{
		newTestAdapter(t, &mockProvider{name: "google_news"}, time.Second),
		newTestAdapter(t, &optionalProvider{mockProvider: mockProvider{name: "newsapi"}}, time.Second),
		newTestAdapter(t, &optionalProvider{mockProvider: mockProvider{name: "gnews"}, configured: true}, time.Second),
	}, query.TermOptions{}, zap.NewNop())

	got := c.Configured()
	if !got["google_news"] || got["newsapi"] || !got["gnews"] {
		t.Errorf("Configured = %v", got)
	}
}
