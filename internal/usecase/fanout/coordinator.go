package fanout

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

// Result is the fan-in of one screening run.
type Result struct {
	Terms    query.TermSet
	Outcomes []outcome.Outcome // registration order
	Records  []record.Record   // concatenated in registration order
}

// Coordinator runs all adapters for a query and waits for every one of them.
type Coordinator struct {
	adapters []*Adapter
	termOpts query.TermOptions
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator. Adapter order is the dedup tiebreak downstream.
func NewCoordinator(adapters []*Adapter, termOpts query.TermOptions, logger *zap.Logger) *Coordinator {
	return &Coordinator{adapters: adapters, termOpts: termOpts, logger: logger}
}

// Sources lists adapter names in registration order.
func (c *Coordinator) Sources() []string {
	names := make([]string, len(c.adapters))
	for i, a := range c.adapters {
		names[i] = a.Name()
	}
	return names
}

// Configured maps each source name to whether its credential is present.
func (c *Coordinator) Configured() map[string]bool {
	out := make(map[string]bool, len(c.adapters))
	for _, a := range c.adapters {
		out[a.Name()] = a.Configured()
	}
	return out
}

// Run derives the term set once and invokes every adapter concurrently.
// The only error is an invalid query; source failures are reported in Outcomes.
func (c *Coordinator) Run(ctx context.Context, q query.Query) (Result, error) {
	if strings.TrimSpace(q.Subject()) == "" {
		return Result{}, domain.ErrInvalidQuery
	}

	terms := q.Terms(c.termOpts)
	outcomes := make([]outcome.Outcome, len(c.adapters))

	var wg sync.WaitGroup
	for i, a := range c.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = a.Fetch(ctx, terms)
		}()
	}
	wg.Wait()

	var records []record.Record
	failed := 0
	for _, o := range outcomes {
		records = append(records, o.Records...)
		if o.Status == outcome.StatusError {
			failed++
		}
	}

	c.logger.Debug("Fan-out complete",
		zap.Int("sources", len(outcomes)),
		zap.Int("failed", failed),
		zap.Int("records", len(records)),
		zap.Int("terms", len(terms)),
	)

	return Result{Terms: terms, Outcomes: outcomes, Records: records}, nil
}
