package fanout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

func TestAdapter_OK(t *testing.T) {
	p := &mockProvider{name: "news", searchFn: returning("a", "b")}
	a := newTestAdapter(t, p, time.Second)

	out := a.Fetch(context.Background(), query.TermSet{"t1", "t2"})

	if out.Status != outcome.StatusOK || out.Err != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Records) != 4 {
		t.Errorf("got %d records, want 4 (2 per term)", len(out.Records))
	}
	if out.Source != "news" {
		t.Errorf("source = %q", out.Source)
	}
}

func TestAdapter_TermCap(t *testing.T) {
	p := &mockProvider{name: "news"}
	a := newTestAdapter(t, p, time.Second)

	a.Fetch(context.Background(), query.TermSet{"t1", "t2", "t3", "t4", "t5", "t6"})

	got := p.calls()
	if strings.Join(got, ",") != "t1,t2,t3" {
		t.Errorf("terms = %v, want first three", got)
	}
}

func TestAdapter_ErrorDropsPartialRecords(t *testing.T) {
	p := &mockProvider{name: "news", searchFn: func(_ context.Context, term string) ([]record.Record, error) {
		if term == "t2" {
			return nil, errors.New("status 502")
		}
		return returning("x")(context.Background(), term)
	}}
	a := newTestAdapter(t, p, time.Second)

	out := a.Fetch(context.Background(), query.TermSet{"t1", "t2"})

	if out.Status != outcome.StatusError {
		t.Fatalf("status = %q", out.Status)
	}
	if out.Records != nil {
		t.Errorf("records = %v, want nil on failure", out.Records)
	}
	if !strings.Contains(out.Err, "status 502") {
		t.Errorf("err = %q", out.Err)
	}
}

func TestAdapter_Timeout(t *testing.T) {
	p := &mockProvider{name: "slow", searchFn: blocking}
	a := newTestAdapter(t, p, 20*time.Millisecond)

	start := time.Now()
	out := a.Fetch(context.Background(), query.TermSet{"t1"})

	if out.Status != outcome.StatusError {
		t.Fatalf("status = %q", out.Status)
	}
	if !strings.Contains(out.Err, "deadline exceeded") {
		t.Errorf("err = %q", out.Err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestAdapter_PanicBecomesOutcome(t *testing.T) {
	p := &mockProvider{name: "buggy", searchFn: func(context.Context, string) ([]record.Record, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	}}
	a := newTestAdapter(t, p, time.Second)

	out := a.Fetch(context.Background(), query.TermSet{"t1"})

	if out.Status != outcome.StatusError || !strings.Contains(out.Err, "panicked") {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestAdapter_NotConfigured(t *testing.T) {
	p := &optionalProvider{mockProvider: mockProvider{name: "newsapi"}}
	a := newTestAdapter(t, p, time.Second)

	out := a.Fetch(context.Background(), query.TermSet{"t1"})

	if out.Status != outcome.StatusNotConfigured {
		t.Fatalf("status = %q", out.Status)
	}
	if len(p.calls()) != 0 {
		t.Error("unconfigured provider must not be called")
	}
}

func TestAdapter_Defaults(t *testing.T) {
	a := NewAdapter(&mockProvider{name: "x"}, AdapterOptions{}, nil)
	if a.timeout != DefaultTimeout || a.terms != DefaultTermsPerSource {
		t.Errorf("defaults = %v/%d", a.timeout, a.terms)
	}
}
