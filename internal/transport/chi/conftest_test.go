package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
	healthuc "github.com/kailas-cloud/screener/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/screener/internal/usecase/retrieval"
	screeninguc "github.com/kailas-cloud/screener/internal/usecase/screening"
	usageuc "github.com/kailas-cloud/screener/internal/usecase/usage"
)

// --- Mocks ---

type mockScreener struct {
	screenFn func(ctx context.Context, req screeninguc.Request) (screeninguc.Report, error)
	calls    int
}

func (m *mockScreener) Screen(ctx context.Context, req screeninguc.Request) (screeninguc.Report, error) {
	m.calls++
	if m.screenFn == nil {
		return screeninguc.Report{ScreeningID: "scr-1", Subject: req.Name}, nil
	}
	return m.screenFn(ctx, req)
}

type mockRetriever struct {
	searchFn func(ctx context.Context, text string, opts retrievaluc.Options) ([]match.Match, error)
	casesFn  func(ctx context.Context, f retrievaluc.Findings, opts retrievaluc.Options) ([]match.Match, error)
	indexFn  func(ctx context.Context, ns, id, text string, meta map[string]string) (retrievaluc.IndexResult, error)
}

func (m *mockRetriever) Search(ctx context.Context, text string, opts retrievaluc.Options) ([]match.Match, error) {
	if m.searchFn == nil {
		return nil, nil
	}
	return m.searchFn(ctx, text, opts)
}

func (m *mockRetriever) FindRelevantCases(
	ctx context.Context, f retrievaluc.Findings, opts retrievaluc.Options,
) ([]match.Match, error) {
	if m.casesFn == nil {
		return nil, nil
	}
	return m.casesFn(ctx, f, opts)
}

func (m *mockRetriever) Index(
	ctx context.Context, ns, id, text string, meta map[string]string,
) (retrievaluc.IndexResult, error) {
	if m.indexFn == nil {
		return retrievaluc.IndexResult{Success: true, ID: id, Chunks: 1}, nil
	}
	return m.indexFn(ctx, ns, id, text, meta)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	period usageuc.Period
}

func (m *mockUsage) GetReport(_ context.Context, period usageuc.Period) usageuc.Report {
	m.period = period
	return usageuc.Report{Period: period, Providers: []usageuc.ProviderUsage{}}
}

// --- Helpers ---

func newTestRouter(s Screener, r Retriever, apiKeys ...string) http.Handler {
	h := &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	return NewServer(s, r, &mockUsage{}, h, zap.NewNop()).Router(apiKeys)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
