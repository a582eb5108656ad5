// Package retrieval searches and writes the namespaced vector corpus.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/chunk"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
	"github.com/kailas-cloud/screener/internal/metrics"
)

// Hash fields reserved by the corpus; caller metadata may not use them.
var reservedMetadata = []string{"content", "vector", "parent_id", "chunk", "metadata", "text"}

var (
	idPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)
	keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)
)

// Service merges matches across namespaces and indexes new material.
type Service struct {
	corpus   Corpus
	embed    Embedder
	cfg      Config
	splitter chunk.Splitter
	logger   *zap.Logger

	mu      sync.Mutex
	ensured map[string]bool
}

// New creates a retrieval service.
func New(corpus Corpus, embed Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	cfg = cfg.withDefaults()
	splitter, err := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunk splitter: %w", err)
	}
	return &Service{
		corpus:   corpus,
		embed:    embed,
		cfg:      cfg,
		splitter: splitter,
		logger:   logger,
		ensured:  make(map[string]bool),
	}, nil
}

// Namespaces returns the configured namespace names in order.
func (s *Service) Namespaces() []string {
	names := make([]string, len(s.cfg.Namespaces))
	for i, ns := range s.cfg.Namespaces {
		names[i] = ns.Name
	}
	return names
}

// Search embeds text once and queries every namespace concurrently with its local topK.
// A failing namespace contributes nothing; only an embedding failure is returned.
func (s *Service) Search(ctx context.Context, text string, opts Options) ([]match.Match, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}

	filters, err := s.scopeFilter(opts, nil)
	if err != nil {
		return nil, err
	}

	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	perNamespace := make([][]match.Match, len(s.cfg.Namespaces))
	var wg sync.WaitGroup
	for i, ns := range s.cfg.Namespaces {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perNamespace[i] = s.queryNamespace(ctx, ns.Name, emb.Embedding, filters, ns.TopK)
		}()
	}
	wg.Wait()

	return match.Merge(slices.Concat(perNamespace...), s.threshold(opts), s.topK(opts)), nil
}

// FindRelevantCases looks up enforcement precedents for a set of findings.
// The tag lists are flattened into one query string without per-field weighting.
func (s *Service) FindRelevantCases(ctx context.Context, f Findings, opts Options) ([]match.Match, error) {
	parts := make([]string, 0, len(f.Indicators)+len(f.Typologies)+len(f.Jurisdictions))
	for _, list := range [][]string{f.Indicators, f.Typologies, f.Jurisdictions} {
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	category, err := filter.NewMatch(filterCategory, s.cfg.CaseCategory)
	if err != nil {
		return nil, fmt.Errorf("case category filter: %w", err)
	}
	filters, err := s.scopeFilter(opts, []filter.Condition{category})
	if err != nil {
		return nil, err
	}

	emb, err := s.embed.Embed(ctx, strings.Join(parts, " "))
	if err != nil {
		return nil, fmt.Errorf("vectorize findings: %w", err)
	}

	topK := s.topK(opts)
	matches := s.queryNamespace(ctx, s.cfg.CaseNamespace, emb.Embedding, filters, topK)
	return match.Merge(matches, s.threshold(opts), topK), nil
}

// Index chunks text, embeds every chunk and replaces the document in the namespace.
func (s *Service) Index(
	ctx context.Context, namespace, id, text string, metadata map[string]string,
) (IndexResult, error) {
	if !s.known(namespace) {
		return IndexResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidNamespace, namespace)
	}
	if !idPattern.MatchString(id) {
		return IndexResult{}, fmt.Errorf("%w: id %q must match %s", domain.ErrInvalidDocument, id, idPattern)
	}
	if err := validateMetadata(metadata); err != nil {
		return IndexResult{}, err
	}

	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return IndexResult{}, fmt.Errorf("%w: text is required", domain.ErrInvalidDocument)
	}

	if err := s.ensure(ctx, namespace); err != nil {
		return IndexResult{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	embedded := make([]chunk.Embedded, len(pieces))
	for i, p := range pieces {
		emb, err := s.embed.Embed(ctx, p.Content)
		if err != nil {
			return IndexResult{}, fmt.Errorf("vectorize chunk %d: %w", p.Index, err)
		}
		embedded[i] = chunk.Embedded{Chunk: p, Vector: emb.Embedding}
	}

	n, err := s.corpus.Replace(ctx, namespace, id, metadata, embedded)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDocument) {
			return IndexResult{}, err
		}
		return IndexResult{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("Document indexed",
		zap.String("namespace", namespace),
		zap.String("id", id),
		zap.Int("chunks", n),
	)
	return IndexResult{Success: true, ID: id, Chunks: n}, nil
}

// EnsureAll creates every configured namespace index. Failures are joined, not fatal.
func (s *Service) EnsureAll(ctx context.Context) error {
	var errs []error
	for _, ns := range s.cfg.Namespaces {
		if err := s.ensure(ctx, ns.Name); err != nil {
			errs = append(errs, fmt.Errorf("namespace %s: %w", ns.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ensure runs check-then-create at most once per namespace per process.
// Failures are not remembered so the next call retries.
func (s *Service) ensure(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured[namespace] {
		return nil
	}
	if err := s.corpus.EnsureNamespace(ctx, namespace); err != nil {
		return err //nolint:wrapcheck // callers add context
	}
	s.ensured[namespace] = true
	return nil
}

func (s *Service) queryNamespace(
	ctx context.Context, namespace string, vector []float32, filters filter.Expression, topK int,
) []match.Match {
	matches, err := s.corpus.Query(ctx, namespace, vector, filters, topK)
	if err != nil {
		metrics.NamespaceQueriesTotal.WithLabelValues(namespace, "error").Inc()
		s.logger.Warn("Namespace query failed", zap.String("namespace", namespace), zap.Error(err))
		return nil
	}
	metrics.NamespaceQueriesTotal.WithLabelValues(namespace, "ok").Inc()
	return matches
}

const (
	filterWorkspace = "workspace_id"
	filterCase      = "case_id"
	filterCategory  = "category"
)

func (s *Service) scopeFilter(opts Options, extra []filter.Condition) (filter.Expression, error) {
	must := extra
	var mustNot []filter.Condition

	if ws := strings.TrimSpace(opts.WorkspaceScope); ws != "" {
		c, err := filter.NewMatch(filterWorkspace, ws)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		must = append(must, c)
	}
	if ex := strings.TrimSpace(opts.ExcludeID); ex != "" {
		c, err := filter.NewMatch(filterCase, ex)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		mustNot = append(mustNot, c)
	}

	expr, err := filter.NewExpression(must, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return expr, nil
}

func (s *Service) threshold(opts Options) float64 {
	if opts.ScoreThreshold != nil {
		return *opts.ScoreThreshold
	}
	return s.cfg.ScoreThreshold
}

func (s *Service) topK(opts Options) int {
	if opts.TopK > 0 {
		return opts.TopK
	}
	return s.cfg.DefaultTopK
}

func (s *Service) known(namespace string) bool {
	for _, ns := range s.cfg.Namespaces {
		if ns.Name == namespace {
			return true
		}
	}
	return false
}

func validateMetadata(metadata map[string]string) error {
	for k := range metadata {
		if !keyPattern.MatchString(k) {
			return fmt.Errorf("%w: metadata key %q is not an identifier", domain.ErrInvalidDocument, k)
		}
		if slices.Contains(reservedMetadata, k) {
			return fmt.Errorf("%w: metadata key %q is reserved", domain.ErrInvalidDocument, k)
		}
	}
	return nil
}
