// Package classify runs the best-effort AI enrichment pass over screening records.
package classify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/metrics"
)

// Defaults for Options.
const (
	DefaultBatchCap = 20
	DefaultTimeout  = 30 * time.Second
)

// Options bound one enrichment call.
type Options struct {
	BatchCap int
	Timeout  time.Duration
}

// Classifier overlays model-assigned category, relevance and summary onto records.
// It never fails: every problem falls back to the input.
type Classifier struct {
	completer Completer
	budget    BudgetChecker
	batchCap  int
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a classifier. A nil completer disables enrichment; budget may be nil.
func New(c Completer, budget BudgetChecker, opts Options, logger *zap.Logger) *Classifier {
	if opts.BatchCap <= 0 {
		opts.BatchCap = DefaultBatchCap
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Classifier{
		completer: c,
		budget:    budget,
		batchCap:  opts.BatchCap,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

// Enabled reports whether a completer is configured.
func (c *Classifier) Enabled() bool { return c.completer != nil }

// Classify returns records with the first BatchCap entries enriched.
// The result has the same length and order as the input.
func (c *Classifier) Classify(
	ctx context.Context, subject string, subjectType query.SubjectType, records []record.Record,
) []record.Record {
	if !c.Enabled() || len(records) == 0 {
		metrics.EnrichmentTotal.WithLabelValues("skipped").Inc()
		return records
	}
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Warn("Enrichment skipped", zap.Error(err))
			metrics.EnrichmentTotal.WithLabelValues("skipped").Inc()
			return records
		}
	}

	batch := records
	if len(batch) > c.batchCap {
		c.logger.Debug("Enrichment batch capped",
			zap.Int("records", len(records)),
			zap.Int("cap", c.batchCap),
		)
		batch = batch[:c.batchCap]
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.completer.Complete(ctx, buildPrompt(subject, subjectType, batch))
	if err != nil {
		c.fallback("completion failed", err, time.Since(start))
		return records
	}
	if c.budget != nil {
		c.budget.Record(int64(res.TotalTokens))
	}

	patches, err := parsePatches(res.Text)
	if err != nil {
		c.fallback("unparseable reply", err, time.Since(start))
		return records
	}

	out := make([]record.Record, len(records))
	copy(out, records)
	applied := apply(out[:len(batch)], patches)

	metrics.EnrichmentTotal.WithLabelValues("applied").Inc()
	c.logger.Debug("Enrichment applied",
		zap.Int("batch", len(batch)),
		zap.Int("patches", len(patches)),
		zap.Int("applied", applied),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

func (c *Classifier) fallback(reason string, err error, d time.Duration) {
	metrics.EnrichmentTotal.WithLabelValues("fallback").Inc()
	c.logger.Warn("Enrichment fell back to unclassified records",
		zap.String("reason", reason),
		zap.Duration("duration", d),
		zap.Error(err),
	)
}

// apply overlays patches in place and returns how many touched a record.
// Out-of-range indexes and invalid labels are ignored individually.
func apply(batch []record.Record, patches []patch) int {
	n := 0
	for _, p := range patches {
		if !p.Index.valid || p.Index.n < 0 || p.Index.n >= len(batch) {
			continue
		}
		r := &batch[p.Index.n]
		touched := false
		if cat, ok := record.ParseCategory(p.Category); ok {
			r.Category = cat
			touched = true
		}
		if rel, ok := record.ParseRelevance(p.Relevance); ok && !r.Authoritative {
			r.Relevance = rel
			touched = true
		}
		if isFinding(p.Summary) {
			r.Summary = strings.TrimSpace(p.Summary)
			touched = true
		}
		if touched {
			n++
		}
	}
	return n
}
