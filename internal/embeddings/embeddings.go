// Package embeddings provides embedding generation via local ONNX models.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmbeddingUnavailable indicates the embedding model could not be
	// loaded or run. It is a hard failure: the operation that needed the
	// embedding fails entirely, never silently replaced with zero vectors.
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")

	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")
)

// Embedder generates vector embeddings from text.
//
// All vectors produced by one Embedder share a fixed dimension for the
// process lifetime. Implementations own expensive model state internally and
// are stateless from the caller's perspective.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts in one batched
	// model call, one vector per input text, same order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query. Some models
	// optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the embedder.
	Close() error
}
