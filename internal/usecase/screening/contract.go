package screening

import (
	"context"

	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/usecase/fanout"
)

// Runner fans one query out to every source.
type Runner interface {
	Run(ctx context.Context, q query.Query) (fanout.Result, error)
}

// Classifier enriches records. It must never fail.
type Classifier interface {
	Classify(ctx context.Context, subject string, subjectType query.SubjectType, records []record.Record) []record.Record
}
