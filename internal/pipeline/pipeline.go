// Package pipeline orchestrates chunking, embedding and index access for the
// ingestion and retrieval paths.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/chunker"
	"github.com/medrag-labs/medragd/internal/embeddings"
	"github.com/medrag-labs/medragd/internal/index"
	"github.com/medrag-labs/medragd/internal/language"
)

// ErrEmptyDocument indicates a document with no content to index. The
// ingestion is rejected with no state change.
var ErrEmptyDocument = errors.New("document has no content to index")

// Config holds the process-wide retrieval policy.
type Config struct {
	// ChunkSize is the chunk window length in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int

	// TopK is the default number of results for Retrieve.
	TopK int
}

// SearchResult is a retrieved chunk with its raw distance and the bounded
// similarity score derived from it.
type SearchResult struct {
	Chunk index.Chunk

	// Distance is the squared Euclidean distance from the query embedding.
	Distance float64

	// Score is 1/(1+Distance), in (0, 1]. Higher is more similar.
	Score float64
}

// Service ties the chunker, the embedding provider and the vector index into
// one consistent contract. Dependencies are injected so tests can substitute
// fakes.
type Service struct {
	config   Config
	embedder embeddings.Embedder
	index    *index.Index
	logger   *zap.Logger
	metrics  *Metrics
}

// New creates a pipeline service. The chunking policy is validated up front
// so misconfiguration fails at startup rather than on the first request.
func New(cfg Config, embedder embeddings.Embedder, idx *index.Index, logger *zap.Logger) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if idx == nil {
		return nil, fmt.Errorf("index is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := chunker.Split("", cfg.ChunkSize, cfg.ChunkOverlap); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}

	return &Service{
		config:   cfg,
		embedder: embedder,
		index:    idx,
		logger:   logger,
		metrics:  NewMetrics(),
	}, nil
}

// Ingest chunks, embeds and indexes one document, returning the number of
// chunks stored.
//
// When lang is empty the document language is detected. Ingestion is
// all-or-nothing: chunks are embedded in one batched call and inserted under
// a single write section, so an embedding failure leaves the index unchanged
// and a concurrent search never observes a partially ingested document.
func (s *Service) Ingest(ctx context.Context, documentID, text string, lang language.Language) (int, error) {
	start := time.Now()

	if lang == "" {
		lang = language.Detect(text)
	}

	parts, err := chunker.Split(text, s.config.ChunkSize, s.config.ChunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("%w: document %q", ErrEmptyDocument, documentID)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, parts)
	if err != nil {
		return 0, fmt.Errorf("embedding document %q: %w", documentID, err)
	}
	if len(vectors) != len(parts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(parts))
	}

	chunks := make([]index.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = index.Chunk{
			Text:       part,
			DocumentID: documentID,
			Sequence:   i,
			Language:   lang,
		}
	}

	if _, err := s.index.InsertBatch(vectors, chunks); err != nil {
		return 0, fmt.Errorf("indexing document %q: %w", documentID, err)
	}

	s.metrics.RecordIngest(len(chunks), time.Since(start))
	s.logger.Info("document ingested",
		zap.String("document_id", documentID),
		zap.String("language", string(lang)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("took", time.Since(start)),
	)
	return len(chunks), nil
}

// Retrieve embeds the query and returns the topK most similar chunks,
// ordered by descending similarity score.
//
// The returned language is the query's, detected when lang is empty. The
// index is queried with the query's own embedding regardless of the stored
// chunk languages: the embedding model is multilingual, and translating
// before embedding would change which vector space is used.
func (s *Service) Retrieve(ctx context.Context, query string, lang language.Language, topK int) ([]SearchResult, language.Language, error) {
	start := time.Now()

	if lang == "" {
		lang = language.Detect(query)
	}
	if topK <= 0 {
		topK = s.config.TopK
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, lang, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Search(vector, topK)
	if err != nil {
		return nil, lang, fmt.Errorf("searching index: %w", err)
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			Chunk:    hit.Chunk,
			Distance: hit.Distance,
			Score:    1 / (1 + hit.Distance),
		}
	}

	s.metrics.RecordRetrieve(len(results), time.Since(start))
	s.logger.Debug("query retrieved",
		zap.String("language", string(lang)),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(start)),
	)
	return results, lang, nil
}

// Count returns the number of indexed chunks.
func (s *Service) Count() int {
	return s.index.Len()
}

// Ready reports whether the index holds at least one vector.
func (s *Service) Ready() bool {
	return s.index.Len() > 0
}
