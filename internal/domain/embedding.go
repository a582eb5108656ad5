package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Completer turns a prompt into free text. The enrichment pass is its only consumer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CompletionResult carries the reply text and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// KeyPrefix namespaces every key this service writes to the vector store.
const KeyPrefix = "screener:"
