// Package chi exposes the screening and retrieval services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
	logpkg "github.com/kailas-cloud/screener/internal/logger"
	"github.com/kailas-cloud/screener/internal/metrics"
	healthuc "github.com/kailas-cloud/screener/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/screener/internal/usecase/retrieval"
	screeninguc "github.com/kailas-cloud/screener/internal/usecase/screening"
	usageuc "github.com/kailas-cloud/screener/internal/usecase/usage"
)

const (
	screeningIDHeader = "X-Screening-ID"
	maxBodyBytes      = 1 << 20
)

// Screener runs one screening.
type Screener interface {
	Screen(ctx context.Context, req screeninguc.Request) (screeninguc.Report, error)
}

// Retriever serves the knowledge-base endpoints.
type Retriever interface {
	Search(ctx context.Context, text string, opts retrievaluc.Options) ([]match.Match, error)
	FindRelevantCases(ctx context.Context, f retrievaluc.Findings, opts retrievaluc.Options) ([]match.Match, error)
	Index(ctx context.Context, namespace, id, text string, metadata map[string]string) (retrievaluc.IndexResult, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports token consumption against budgets.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	screening     Screener
	retrieval     Retriever
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. retrieval can be nil when the vector store is not configured.
func NewServer(
	screening Screener,
	retrieval Retriever,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		screening:     screening,
		retrieval:     retrieval,
		usage:         usage,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Post("/screen", s.Screen)
	r.Route("/retrieval", func(r chi.Router) {
		r.Post("/search", s.SearchKnowledge)
		r.Post("/cases", s.FindRelevantCases)
		r.Post("/index", s.IndexDocument)
	})
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

// Screen handles POST /screen.
func (s *Server) Screen(w http.ResponseWriter, r *http.Request) {
	var req screeninguc.Request
	if !s.decode(w, r, &req) {
		return
	}

	report, err := s.screening.Screen(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set(screeningIDHeader, report.ScreeningID)
	writeJSON(w, http.StatusOK, report)
}

type scopeParams struct {
	WorkspaceScope string   `json:"workspaceScope,omitempty"`
	ExcludeID      string   `json:"excludeId,omitempty"`
	TopK           int      `json:"topK,omitempty"`
	ScoreThreshold *float64 `json:"scoreThreshold,omitempty"`
}

func (p scopeParams) options() (retrievaluc.Options, error) {
	if p.TopK < 0 {
		return retrievaluc.Options{}, fmt.Errorf("%w: topK must not be negative", domain.ErrInvalidQuery)
	}
	if p.ScoreThreshold != nil && (*p.ScoreThreshold < 0 || *p.ScoreThreshold > 1) {
		return retrievaluc.Options{}, fmt.Errorf("%w: scoreThreshold must be between 0 and 1", domain.ErrInvalidQuery)
	}
	return retrievaluc.Options{
		WorkspaceScope: p.WorkspaceScope,
		ExcludeID:      p.ExcludeID,
		TopK:           p.TopK,
		ScoreThreshold: p.ScoreThreshold,
	}, nil
}

type searchRequest struct {
	Query string `json:"query"`
	scopeParams
}

type casesRequest struct {
	Indicators    []string `json:"indicators"`
	Typologies    []string `json:"typologies"`
	Jurisdictions []string `json:"jurisdictions"`
	scopeParams
}

type indexRequest struct {
	Namespace string            `json:"namespace"`
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type matchListResponse struct {
	Matches []match.Match `json:"matches"`
	Total   int           `json:"total"`
}

func matchList(matches []match.Match) matchListResponse {
	if matches == nil {
		matches = []match.Match{}
	}
	return matchListResponse{Matches: matches, Total: len(matches)}
}

// SearchKnowledge handles POST /retrieval/search.
func (s *Server) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	if !s.retrievalEnabled(w, r) {
		return
	}
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	matches, err := s.retrieval.Search(r.Context(), req.Query, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchList(matches))
}

// FindRelevantCases handles POST /retrieval/cases.
func (s *Server) FindRelevantCases(w http.ResponseWriter, r *http.Request) {
	if !s.retrievalEnabled(w, r) {
		return
	}
	var req casesRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	findings := retrievaluc.Findings{
		Indicators:    req.Indicators,
		Typologies:    req.Typologies,
		Jurisdictions: req.Jurisdictions,
	}
	matches, err := s.retrieval.FindRelevantCases(r.Context(), findings, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchList(matches))
}

// IndexDocument handles POST /retrieval/index.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	if !s.retrievalEnabled(w, r) {
		return
	}
	var req indexRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.retrieval.Index(r.Context(), req.Namespace, req.ID, req.Text, req.Metadata)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context(), period))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) retrievalEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.retrieval == nil {
		s.handleDomainError(w, r, domain.ErrRetrievalDisabled)
		return false
	}
	return true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleDomainError logs through the request-scoped logger so request_id is attached.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
