package usage

import "github.com/kailas-cloud/screener/internal/usecase/budget"

// BudgetReader provides read-only access to one provider's token budget.
type BudgetReader interface {
	Snapshot() budget.Snapshot
}
