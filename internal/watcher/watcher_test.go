package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/index"
	"github.com/medrag-labs/medragd/internal/pipeline"
)

type staticEmbedder struct{}

func (staticEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (staticEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0, 1}, nil
}

func (staticEmbedder) Dimension() int { return 2 }
func (staticEmbedder) Close() error   { return nil }

func newTestPipeline(t *testing.T) (*pipeline.Service, *index.Index) {
	t.Helper()
	idx := index.New()
	svc, err := pipeline.New(pipeline.Config{ChunkSize: 512, ChunkOverlap: 50}, staticEmbedder{}, idx, zap.NewNop())
	require.NoError(t, err)
	return svc, idx
}

func TestNewValidatesDirectory(t *testing.T) {
	svc, _ := newTestPipeline(t)

	_, err := New(filepath.Join(t.TempDir(), "missing"), svc, zap.NewNop())
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(file, svc, zap.NewNop())
	assert.Error(t, err)

	_, err = New(t.TempDir(), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestIngestsDroppedFile(t *testing.T) {
	svc, idx := newTestPipeline(t)
	dir := t.TempDir()

	w, err := New(dir, svc, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("dropped document content"), 0o644))

	require.Eventually(t, func() bool {
		return idx.Len() == 1
	}, 5*time.Second, 50*time.Millisecond)

	results, _, err := svc.Retrieve(ctx, "dropped", "", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes", results[0].Chunk.DocumentID)
}

func TestIgnoresNonTxtFiles(t *testing.T) {
	svc, idx := newTestPipeline(t)
	dir := t.TempDir()

	w, err := New(dir, svc, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"a": 1}`), 0o644))

	time.Sleep(settleDelay + 300*time.Millisecond)
	assert.Zero(t, idx.Len())
}

func TestSkipsEmptyFile(t *testing.T) {
	svc, idx := newTestPipeline(t)
	dir := t.TempDir()

	w, err := New(dir, svc, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("   \n"), 0o644))

	time.Sleep(settleDelay + 300*time.Millisecond)
	assert.Zero(t, idx.Len())
}

func TestStopReleasesWatcher(t *testing.T) {
	svc, _ := newTestPipeline(t)

	w, err := New(t.TempDir(), svc, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "second stop is a no-op")
}

func TestStopCancelsPendingIngest(t *testing.T) {
	svc, idx := newTestPipeline(t)
	dir := t.TempDir()

	w, err := New(dir, svc, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Arm a settle timer and stop before it fires: the file must not be
	// ingested after Stop returns, even once the delay elapses.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), []byte("arrived during shutdown"), 0o644))
	w.schedule(ctx, filepath.Join(dir, "late.txt"))
	require.NoError(t, w.Stop())

	time.Sleep(settleDelay + 200*time.Millisecond)
	assert.Zero(t, idx.Len())
}

// gatedEmbedder signals when an embed starts and blocks until released.
type gatedEmbedder struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 1}
	}
	return out, nil
}

func (g *gatedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 1}, nil
}

func (g *gatedEmbedder) Dimension() int { return 2 }
func (g *gatedEmbedder) Close() error   { return nil }

func TestStopWaitsForInFlightIngest(t *testing.T) {
	emb := &gatedEmbedder{started: make(chan struct{}), release: make(chan struct{})}
	idx := index.New()
	svc, err := pipeline.New(pipeline.Config{ChunkSize: 512, ChunkOverlap: 50}, emb, idx, zap.NewNop())
	require.NoError(t, err)

	dir := t.TempDir()
	w, err := New(dir, svc, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "slow.txt"), []byte("slow document"), 0o644))
	select {
	case <-emb.started:
	case <-time.After(5 * time.Second):
		t.Fatal("ingest never started")
	}

	stopDone := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while an ingest was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(emb.release)
	select {
	case <-stopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop never returned after the ingest completed")
	}
	assert.Equal(t, 1, idx.Len(), "the in-flight ingest completes before Stop returns")
}
