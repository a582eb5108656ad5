// Package fanout runs one screening query against every source concurrently.
package fanout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/metrics"
)

// Defaults for AdapterOptions.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultTermsPerSource = 3
)

// AdapterOptions bound one source invocation.
type AdapterOptions struct {
	Timeout        time.Duration
	TermsPerSource int
}

// Adapter wraps a Provider so that every failure mode, panics included, becomes an Outcome.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	terms    int
	logger   *zap.Logger
}

// NewAdapter wraps p. Zero options take the defaults.
func NewAdapter(p Provider, opts AdapterOptions, logger *zap.Logger) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TermsPerSource <= 0 {
		opts.TermsPerSource = DefaultTermsPerSource
	}
	return &Adapter{provider: p, timeout: opts.Timeout, terms: opts.TermsPerSource, logger: logger}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return a.provider.Name() }

// Configured is false only for optional providers missing their credential.
func (a *Adapter) Configured() bool {
	if c, ok := a.provider.(configurable); ok {
		return c.Configured()
	}
	return true
}

// Fetch queries the provider with the first TermsPerSource terms, one call per term,
// under a single deadline. Any failure discards the partial records.
func (a *Adapter) Fetch(ctx context.Context, terms query.TermSet) (out outcome.Outcome) {
	name := a.Name()
	if !a.Configured() {
		metrics.SourceRequestsTotal.WithLabelValues(name, string(outcome.StatusNotConfigured)).Inc()
		return outcome.NotConfigured(name)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Source panicked", zap.String("source", name), zap.Any("panic", r))
			out = outcome.Failed(name, fmt.Errorf("source panicked: %v", r))
		}
		metrics.SourceRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.SourceRequestsTotal.WithLabelValues(name, string(out.Status)).Inc()
		metrics.SourceRecordsTotal.WithLabelValues(name).Add(float64(len(out.Records)))
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var records []record.Record
	for _, term := range terms.Head(a.terms) {
		recs, err := a.provider.Search(ctx, term)
		if err != nil {
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", ctx.Err(), err)
			}
			a.logger.Warn("Source failed",
				zap.String("source", name),
				zap.String("term", term),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return outcome.Failed(name, err)
		}
		records = append(records, recs...)
	}

	a.logger.Debug("Source done",
		zap.String("source", name),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcome.OK(name, records)
}
