package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/config"
	"github.com/kailas-cloud/screener/internal/db"
	dbRedis "github.com/kailas-cloud/screener/internal/db/redis"
	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	logpkg "github.com/kailas-cloud/screener/internal/logger"
	"github.com/kailas-cloud/screener/internal/metrics"
	budgetrepo "github.com/kailas-cloud/screener/internal/repository/budget"
	"github.com/kailas-cloud/screener/internal/repository/corpus"
	"github.com/kailas-cloud/screener/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/screener/internal/transport/chi"
	"github.com/kailas-cloud/screener/internal/transport/fetch"
	"github.com/kailas-cloud/screener/internal/transport/gnews"
	"github.com/kailas-cloud/screener/internal/transport/newsapi"
	openaiTransport "github.com/kailas-cloud/screener/internal/transport/openai"
	"github.com/kailas-cloud/screener/internal/transport/rss"
	budgetuc "github.com/kailas-cloud/screener/internal/usecase/budget"
	"github.com/kailas-cloud/screener/internal/usecase/classify"
	embeddinguc "github.com/kailas-cloud/screener/internal/usecase/embedding"
	"github.com/kailas-cloud/screener/internal/usecase/fanout"
	healthuc "github.com/kailas-cloud/screener/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/screener/internal/usecase/retrieval"
	screeninguc "github.com/kailas-cloud/screener/internal/usecase/screening"
	usageuc "github.com/kailas-cloud/screener/internal/usecase/usage"
	"github.com/kailas-cloud/screener/internal/version"
)

const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
	bootstrapTimeout = 30 * time.Second
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting screener API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("enrichment", cfg.Enrichment.APIKey != ""),
		zap.Bool("retrieval", cfg.RetrievalEnabled()),
	)

	metrics.RegisterProviderMetrics()
	metrics.RegisterScreeningMetrics()

	ctx := context.Background()

	// The vector store is optional: it backs retrieval, the embedding cache and budget counters.
	var store db.Store
	if len(cfg.Vector.Addrs) > 0 {
		store = connectStore(ctx, cfg.Vector, logger)
		defer store.Close()
	}

	budgets := newBudgets(ctx, cfg.Budget, store, logger)

	coordinator := buildCoordinator(cfg.Sources, logger)

	var completer classify.Completer
	if cfg.Enrichment.APIKey != "" {
		completer = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.Enrichment.APIKey,
			BaseURL:  cfg.Enrichment.BaseURL,
			Model:    cfg.Enrichment.Model,
			Provider: cfg.Enrichment.Provider,
			Logger:   logger,
		})
	}
	classifier := classify.New(completer, budgets.checker(cfg.Enrichment.Provider), classify.Options{
		BatchCap: cfg.Enrichment.BatchCap,
		Timeout:  seconds(cfg.Enrichment.TimeoutSec),
	}, logger)

	screeningSvc := screeninguc.New(coordinator, classifier, cfg.Screening.MaxArticles, logger)

	// Nil interfaces, not typed nil pointers, when retrieval is off.
	var (
		retriever      chiTransport.Retriever
		storePinger    healthuc.StorePinger
		embeddingCheck healthuc.EmbeddingChecker
	)
	if store != nil {
		storePinger = store
	}
	if cfg.RetrievalEnabled() {
		base := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embeddingCheck = base

		retrievalSvc, err := buildRetrieval(cfg, store, base, budgets.checker(cfg.Embedding.Provider), logger)
		if err != nil {
			logger.Fatal("Failed to create retrieval service", zap.Error(err))
		}
		bootstrapNamespaces(ctx, retrievalSvc, logger)
		retriever = retrievalSvc
	}

	healthSvc := healthuc.New(storePinger, embeddingCheck, coordinator.Configured())

	usageSvc := usageuc.New(budgets.readers()...)

	server := chiTransport.NewServer(screeningSvc, retriever, usageSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: seconds(cfg.HTTP.WriteTimeoutSec),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Strings("sources", coordinator.Sources()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// connectStore dials valkey or redis. Both speak the same protocol through rueidis.
func connectStore(ctx context.Context, cfg config.VectorConfig, logger *zap.Logger) db.Store {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.String("driver", cfg.Driver), zap.Error(err))
	}
	if err := store.WaitForReady(ctx, seconds(cfg.ReadinessTimeout)); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store",
		zap.String("driver", cfg.Driver),
		zap.Strings("addrs", cfg.Addrs),
	)
	return store
}

// buildCoordinator registers the baseline feeds first, then the keyed APIs.
// Registration order is the dedup tiebreak.
func buildCoordinator(cfg config.SourcesConfig, logger *zap.Logger) *fanout.Coordinator {
	client := fetch.New(nil, cfg.UserAgent)

	providers := []fanout.Provider{
		rss.NewGoogleNews(client, feedConfig(cfg.GoogleNews)),
		rss.NewGovSearch(client, feedConfig(cfg.Government.FeedConfig), cfg.Government.Domains),
		newsapi.New(client, newsapi.Config{
			APIKey:     cfg.NewsAPI.APIKey,
			BaseURL:    cfg.NewsAPI.BaseURL,
			Language:   cfg.NewsAPI.Language,
			MaxRecords: cfg.NewsAPI.MaxRecords,
		}),
		gnews.New(client, gnews.Config{
			APIKey:     cfg.GNews.APIKey,
			BaseURL:    cfg.GNews.BaseURL,
			Language:   cfg.GNews.Language,
			MaxRecords: cfg.GNews.MaxRecords,
		}),
	}

	opts := fanout.AdapterOptions{
		Timeout:        seconds(cfg.TimeoutSec),
		TermsPerSource: cfg.TermsPerSource,
	}
	adapters := make([]*fanout.Adapter, len(providers))
	for i, p := range providers {
		adapters[i] = fanout.NewAdapter(p, opts, logger)
	}

	return fanout.NewCoordinator(adapters, query.TermOptions{
		MaxTerms:    cfg.MaxTerms,
		MaxKeywords: cfg.MaxKeywords,
	}, logger)
}

func feedConfig(c config.FeedConfig) rss.Config {
	return rss.Config{
		BaseURL:    c.BaseURL,
		Locale:     c.Locale,
		Country:    c.Country,
		MaxRecords: c.MaxRecords,
	}
}

// buildRetrieval assembles the embedder chain OpenAI -> Cached -> Instrumented and the corpus.
func buildRetrieval(
	cfg config.Config,
	store db.Store,
	base domain.Embedder,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) (*retrievaluc.Service, error) {
	embedder := embcache.New(base, store, cfg.Embedding.Model, seconds(cfg.Embedding.CacheTTLSec),
		metrics.EmbeddingCacheTotal, logger)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, budget, logger,
	)

	algo, err := db.ParseVectorAlgorithm(cfg.Vector.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("vector.algorithm: %w", err)
	}
	repo := corpus.New(store, corpus.IndexConfig{
		VectorDim:   cfg.Embedding.Dimensions,
		Algorithm:   algo,
		M:           cfg.Vector.HNSWM,
		EFConstruct: cfg.Vector.HNSWEFConstruct,
	})

	namespaces := make([]retrievaluc.Namespace, len(cfg.Vector.Namespaces))
	for i, ns := range cfg.Vector.Namespaces {
		namespaces[i] = retrievaluc.Namespace{Name: ns.Name, TopK: ns.TopK}
	}

	svc, err := retrievaluc.New(repo, instrumented, retrievaluc.Config{
		Namespaces:     namespaces,
		DefaultTopK:    cfg.Vector.DefaultTopK,
		ScoreThreshold: cfg.Vector.ScoreThreshold,
		CaseNamespace:  cfg.Vector.CaseNamespace,
		CaseCategory:   cfg.Vector.CaseCategory,
		ChunkSize:      cfg.Vector.ChunkSize,
		ChunkOverlap:   cfg.Vector.ChunkOverlap,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	logger.Info("Retrieval enabled",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Strings("namespaces", svc.Namespaces()),
	)
	return svc, nil
}

// bootstrapNamespaces creates every namespace index up front. Failures are retried lazily on first use.
func bootstrapNamespaces(ctx context.Context, svc *retrievaluc.Service, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()
	if err := svc.EnsureAll(ctx); err != nil {
		logger.Warn("Namespace bootstrap incomplete", zap.Error(err))
	}
}

// budgets holds one tracker per provider name so embedding and enrichment on the
// same account share a limit.
type budgets struct {
	cfg      config.BudgetConfig
	store    db.Store
	trackers map[string]*budgetuc.Tracker
	ctx      context.Context
	logger   *zap.Logger
}

func newBudgets(ctx context.Context, cfg config.BudgetConfig, store db.Store, logger *zap.Logger) *budgets {
	return &budgets{cfg: cfg, store: store, trackers: make(map[string]*budgetuc.Tracker), ctx: ctx, logger: logger}
}

type budgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// checker returns a nil interface when no limit is configured.
func (b *budgets) checker(provider string) budgetChecker {
	if !b.cfg.Enabled() {
		return nil
	}
	if t, ok := b.trackers[provider]; ok {
		return t
	}
	t := budgetuc.NewTracker(provider, b.cfg.DailyTokenLimit, b.cfg.MonthlyTokenLimit,
		budgetuc.ParseAction(b.cfg.Action), b.logger)
	if b.store != nil {
		t.WithStore(b.ctx, budgetrepo.New(b.store, budgetDailyTTL, budgetMonthlyTTL))
	}
	b.trackers[provider] = t
	return t
}

func (b *budgets) readers() []usageuc.BudgetReader {
	out := make([]usageuc.BudgetReader, 0, len(b.trackers))
	for _, t := range b.trackers {
		out = append(out, t)
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
