package screening

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/screener/internal/domain/screening/outcome"
	"github.com/kailas-cloud/screener/internal/domain/screening/query"
	"github.com/kailas-cloud/screener/internal/domain/screening/record"
	"github.com/kailas-cloud/screener/internal/usecase/fanout"
)

// --- Mocks ---

type mockRunner struct {
	runFn func(ctx context.Context, q query.Query) (fanout.Result, error)
	calls atomic.Int32
}

func (m *mockRunner) Run(ctx context.Context, q query.Query) (fanout.Result, error) {
	m.calls.Add(1)
	if m.runFn == nil {
		return fanout.Result{}, nil
	}
	return m.runFn(ctx, q)
}

type mockClassifier struct {
	classifyFn func(records []record.Record) []record.Record
}

func (m *mockClassifier) Classify(
	_ context.Context, _ string, _ query.SubjectType, records []record.Record,
) []record.Record {
	if m.classifyFn == nil {
		return records
	}
	return m.classifyFn(records)
}

// --- Helpers ---

var fixedTime = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestService(r Runner, c Classifier) *Service {
	svc := New(r, c, 0, zap.NewNop())
	svc.now = func() time.Time { return fixedTime }
	svc.newID = func() string { return "scr-1" }
	return svc
}

func resultOf(outcomes ...outcome.Outcome) fanout.Result {
	var res fanout.Result
	res.Terms = query.TermSet{`"Jane Doe"`}
	for _, o := range outcomes {
		res.Outcomes = append(res.Outcomes, o)
		res.Records = append(res.Records, o.Records...)
	}
	return res
}
