package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/chunker"
	"github.com/medrag-labs/medragd/internal/embeddings"
	"github.com/medrag-labs/medragd/internal/index"
	"github.com/medrag-labs/medragd/internal/language"
)

// fakeEmbedder maps texts to small deterministic vectors. The first
// component is derived from the text so distinct texts land at distinct
// points and an identical query lands exactly on its document.
type fakeEmbedder struct {
	dimension int
	embedErr  error
	queryErr  error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dimension: 4}
}

func (f *fakeEmbedder) embed(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	n := float32(len([]rune(text)))
	if n == 0 {
		n = 1
	}
	return []float32{sum / (n * 1000), n / 1000, 0, 0}
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if len(texts) == 0 {
		return nil, embeddings.ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if text == "" {
		return nil, embeddings.ErrEmptyInput
	}
	return f.embed(text), nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }
func (f *fakeEmbedder) Close() error   { return nil }

func newService(t *testing.T, cfg Config) (*Service, *fakeEmbedder, *index.Index) {
	t.Helper()
	emb := newFakeEmbedder()
	idx := index.New()
	svc, err := New(cfg, emb, idx, zap.NewNop())
	require.NoError(t, err)
	return svc, emb, idx
}

func TestNewValidatesChunking(t *testing.T) {
	emb := newFakeEmbedder()
	_, err := New(Config{ChunkSize: 100, ChunkOverlap: 100}, emb, index.New(), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, chunker.ErrInvalidConfig))

	_, err = New(Config{ChunkSize: 512, ChunkOverlap: 50}, nil, index.New(), zap.NewNop())
	assert.Error(t, err)

	_, err = New(Config{ChunkSize: 512, ChunkOverlap: 50}, emb, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestIngestChunkCount(t *testing.T) {
	svc, _, idx := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50, TopK: 3})

	// 1000 characters at 512/50 produce exactly three chunks.
	text := strings.Repeat("abcdefghij", 100)
	stored, err := svc.Ingest(context.Background(), "doc-1", text, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stored)
	assert.Equal(t, 3, idx.Len())
	assert.True(t, svc.Ready())

	results, _, err := svc.Retrieve(context.Background(), text[:512], "", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "doc-1", r.Chunk.DocumentID)
		assert.Contains(t, []int{0, 1, 2}, r.Chunk.Sequence)
	}
	assert.Equal(t, 0, results[0].Chunk.Sequence)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestIngestDetectsLanguage(t *testing.T) {
	svc, _, idx := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50})

	_, err := svc.Ingest(context.Background(), "doc-ja", "糖尿病の診断基準は以下の通りです。", "")
	require.NoError(t, err)

	results, lang, err := svc.Retrieve(context.Background(), "診断基準", "", 1)
	require.NoError(t, err)
	assert.Equal(t, language.JA, lang)
	require.Len(t, results, 1)
	assert.Equal(t, language.JA, results[0].Chunk.Language)
	assert.Equal(t, 1, idx.Len())
}

func TestIngestEmptyDocument(t *testing.T) {
	svc, _, idx := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50})

	for _, text := range []string{"", "   \n\t"} {
		_, err := svc.Ingest(context.Background(), "doc-empty", text, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyDocument))
	}
	assert.Zero(t, idx.Len())
	assert.False(t, svc.Ready())
}

func TestIngestEmbedFailureLeavesIndexUnchanged(t *testing.T) {
	svc, emb, idx := newService(t, Config{ChunkSize: 100, ChunkOverlap: 10})

	_, err := svc.Ingest(context.Background(), "doc-ok", "some baseline content", "")
	require.NoError(t, err)
	before := idx.Len()

	emb.embedErr = fmt.Errorf("%w: model not loaded", embeddings.ErrEmbeddingUnavailable)
	_, err = svc.Ingest(context.Background(), "doc-fail", strings.Repeat("z", 500), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, embeddings.ErrEmbeddingUnavailable))
	assert.Equal(t, before, idx.Len(), "failed ingestion inserts nothing")
}

func TestRetrieveOrderingAndScores(t *testing.T) {
	svc, _, _ := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50, TopK: 3})

	docs := map[string]string{
		"doc-a": "diabetes diagnostic criteria",
		"doc-b": "hypertension treatment guidelines",
		"doc-c": "seasonal influenza vaccination schedule",
	}
	for id, text := range docs {
		_, err := svc.Ingest(context.Background(), id, text, language.EN)
		require.NoError(t, err)
	}

	results, lang, err := svc.Retrieve(context.Background(), "diabetes diagnostic criteria", "", 0)
	require.NoError(t, err)
	assert.Equal(t, language.EN, lang)
	require.Len(t, results, 3)

	// The identical text embeds to the identical point: distance 0, score 1.
	assert.Equal(t, "doc-a", results[0].Chunk.DocumentID)
	assert.Zero(t, results[0].Distance)
	assert.Equal(t, 1.0, results[0].Score)

	for i := range results {
		assert.InDelta(t, 1/(1+results[i].Distance), results[i].Score, 1e-12)
		assert.Greater(t, results[i].Score, 0.0)
		assert.LessOrEqual(t, results[i].Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	}
}

func TestRetrieveTopKDefault(t *testing.T) {
	svc, _, _ := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50, TopK: 2})

	for i := 0; i < 5; i++ {
		_, err := svc.Ingest(context.Background(), fmt.Sprintf("doc-%d", i), fmt.Sprintf("document number %d content", i), language.EN)
		require.NoError(t, err)
	}

	results, _, err := svc.Retrieve(context.Background(), "document content", "", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, _, err = svc.Retrieve(context.Background(), "document content", "", 4)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	svc, _, _ := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50})

	results, lang, err := svc.Retrieve(context.Background(), "anything", "", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, language.EN, lang)
}

func TestRetrieveEmbedFailure(t *testing.T) {
	svc, emb, _ := newService(t, Config{ChunkSize: 512, ChunkOverlap: 50})
	_, err := svc.Ingest(context.Background(), "doc-1", "content", "")
	require.NoError(t, err)

	emb.queryErr = fmt.Errorf("%w: model not loaded", embeddings.ErrEmbeddingUnavailable)
	_, _, err = svc.Retrieve(context.Background(), "query", "", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, embeddings.ErrEmbeddingUnavailable))
}

func TestCount(t *testing.T) {
	svc, _, _ := newService(t, Config{ChunkSize: 100, ChunkOverlap: 10})
	assert.Zero(t, svc.Count())

	stored, err := svc.Ingest(context.Background(), "doc-1", strings.Repeat("a", 250), language.EN)
	require.NoError(t, err)
	assert.Equal(t, stored, svc.Count())
}
