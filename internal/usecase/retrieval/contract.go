package retrieval

import (
	"context"

	"github.com/kailas-cloud/screener/internal/domain"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/chunk"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/screener/internal/domain/retrieval/match"
)

// Corpus is the storage contract for namespaced retrieval material.
type Corpus interface {
	EnsureNamespace(ctx context.Context, namespace string) error
	Query(
		ctx context.Context, namespace string, vector []float32,
		filters filter.Expression, topK int,
	) ([]match.Match, error)
	Replace(
		ctx context.Context, namespace, id string,
		metadata map[string]string, chunks []chunk.Embedded,
	) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
