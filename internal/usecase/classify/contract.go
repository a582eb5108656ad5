package classify

import (
	"context"

	"github.com/kailas-cloud/screener/internal/domain"
)

// Completer sends one prompt to the enrichment model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// BudgetChecker gates enrichment on the remaining token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
