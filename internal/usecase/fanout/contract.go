package fanout

import (
	"context"

	"github.com/kailas-cloud/screener/internal/domain/screening/record"
)

// Provider is one external search backend. Implementations normalize their wire
// format into records and may return any error; Adapter contains it.
type Provider interface {
	Name() string
	Search(ctx context.Context, term string) ([]record.Record, error)
}

// configurable is implemented by optional providers that need a credential.
type configurable interface {
	Configured() bool
}
