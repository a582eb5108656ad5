package retrieval

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/chunk"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
)

// --- Mocks ---

type queryCall struct {
	namespace string
	filters   filter.Expression
	topK      int
}

type mockCorpus struct {
	mu sync.Mutex

	ensureFn  func(ctx context.Context, namespace string) error
	queryFn   func(ctx context.Context, namespace string, topK int) ([]match.Match, error)
	replaceFn func(ctx context.Context, namespace, id string, meta map[string]string, chunks []chunk.Embedded) (int, error)

	ensureCalls []string
	queryCalls  []queryCall
	replaced    []chunk.Embedded
}

func (m *mockCorpus) EnsureNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	m.ensureCalls = append(m.ensureCalls, namespace)
	m.mu.Unlock()
	if m.ensureFn != nil {
		return m.ensureFn(ctx, namespace)
	}
	return nil
}

func (m *mockCorpus) Query(
	ctx context.Context, namespace string, _ []float32, filters filter.Expression, topK int,
) ([]match.Match, error) {
	m.mu.Lock()
	m.queryCalls = append(m.queryCalls, queryCall{namespace: namespace, filters: filters, topK: topK})
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, namespace, topK)
	}
	return nil, nil
}

func (m *mockCorpus) Replace(
	ctx context.Context, namespace, id string, meta map[string]string, chunks []chunk.Embedded,
) (int, error) {
	m.mu.Lock()
	m.replaced = append(m.replaced, chunks...)
	m.mu.Unlock()
	if m.replaceFn != nil {
		return m.replaceFn(ctx, namespace, id, meta, chunks)
	}
	return len(chunks), nil
}

func (m *mockCorpus) queried(namespace string) (queryCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.queryCalls {
		if c.namespace == namespace {
			return c, true
		}
	}
	return queryCall{}, false
}

type mockEmbedder struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// --- Helpers ---

func newTestService(t *testing.T, c Corpus, e Embedder, cfg Config) *Service {
	t.Helper()
	s, err := New(c, e, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func m(id, ns string, score float64) match.Match {
	return match.Match{ID: id, Namespace: ns, Score: score}
}

func ptr(f float64) *float64 { return &f }
