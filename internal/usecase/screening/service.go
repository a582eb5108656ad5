// Package screening produces adverse-media screening reports.
package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/domain/screening/risk"
	"github.com/kailas-cloud/screener/internal/metrics"
)

// DefaultMaxArticles caps the articles returned in a report. Scoring uses all of them.
const DefaultMaxArticles = 20

// Service runs the screening pipeline: fan-out, dedup, classify, score.
type Service struct {
	runner      Runner
	classifier  Classifier
	maxArticles int
	now         func() time.Time
	newID       func() string
	logger      *zap.Logger
}

// New creates a screening service.
func New(runner Runner, classifier Classifier, maxArticles int, logger *zap.Logger) *Service {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}
	return &Service{
		runner:      runner,
		classifier:  classifier,
		maxArticles: maxArticles,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		logger:      logger,
	}
}

// Screen validates req and returns a report. The only error is domain.ErrInvalidQuery;
// source and enrichment failures are reported inside the report.
func (s *Service) Screen(ctx context.Context, req Request) (Report, error) {
	subjectType, err := query.ParseSubjectType(req.Type)
	if err != nil {
		return Report{}, err //nolint:wrapcheck // already carries ErrInvalidQuery
	}
	q, err := query.New(req.Name, subjectType, req.Country, req.AdditionalTerms)
	if err != nil {
		return Report{}, err //nolint:wrapcheck // already carries ErrInvalidQuery
	}

	id := s.newID()
	start := s.now()

	res, err := s.runner.Run(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("fan out: %w", err)
	}

	records := record.Dedupe(res.Records)
	records = s.classifier.Classify(ctx, q.Subject(), q.SubjectType(), records)
	assessment := risk.Score(records)

	status := StatusClear
	if len(records) > 0 {
		status = StatusFindings
	}
	articles := records
	if len(articles) > s.maxArticles {
		articles = articles[:s.maxArticles]
	}
	if articles == nil {
		articles = []record.Record{}
	}

	report := Report{
		ScreeningID:   id,
		Subject:       q.Subject(),
		Type:          q.SubjectType(),
		ScreeningDate: start.Format(time.RFC3339),
		AdverseMedia: AdverseMedia{
			Status:        status,
			TotalArticles: len(records),
			Categories:    categoryCounts(records),
			Articles:      articles,
		},
		RiskScore:            assessment.Score,
		RiskLevel:            assessment.Level,
		SeverityCounts:       assessment.SeverityCounts,
		SourcesSearched:      summarize(res.Outcomes),
		SuggestedSearchTerms: append([]string{}, res.Terms...),
	}

	metrics.ScreeningsTotal.WithLabelValues(string(assessment.Level)).Inc()
	s.logger.Info("Screening complete",
		zap.String("screening_id", id),
		zap.String("subject_type", string(q.SubjectType())),
		zap.Int("raw_records", len(res.Records)),
		zap.Int("articles", len(records)),
		zap.Int("risk_score", assessment.Score),
		zap.String("risk_level", string(assessment.Level)),
		zap.Duration("duration", s.now().Sub(start)),
	)
	return report, nil
}
