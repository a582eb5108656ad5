package domain

import "errors"

var (
	// ErrInvalidQuery signals a screening request the caller must fix (empty subject, bad type).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidNamespace signals an unknown or malformed retrieval namespace.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidDocument signals an index request with empty text or bad metadata.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrRetrievalDisabled signals that the vector store or embedder is not configured.
	ErrRetrievalDisabled = errors.New("retrieval not configured")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrBudgetExceeded signals that a provider's token budget is spent and the action is reject.
	ErrBudgetExceeded = errors.New("token budget exceeded")
	// ErrStoreUnavailable signals a vector store failure on the write path.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)
