//go:build !cgo

package embeddings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FastEmbedConfig holds configuration for the FastEmbed provider.
type FastEmbedConfig struct {
	Model       string
	CacheDir    string
	MaxLength   int
	LoadTimeout time.Duration
}

// FastEmbedProvider is a stub for binaries built without CGO: the ONNX
// runtime is unavailable, so every call fails with ErrEmbeddingUnavailable.
type FastEmbedProvider struct{}

// NewFastEmbedProvider returns an error when CGO is not available.
func NewFastEmbedProvider(_ FastEmbedConfig, _ *zap.Logger) (*FastEmbedProvider, error) {
	return nil, fmt.Errorf("%w: binary built without CGO support", ErrEmbeddingUnavailable)
}

func (p *FastEmbedProvider) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: binary built without CGO support", ErrEmbeddingUnavailable)
}

func (p *FastEmbedProvider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("%w: binary built without CGO support", ErrEmbeddingUnavailable)
}

func (p *FastEmbedProvider) Dimension() int { return 0 }

func (p *FastEmbedProvider) Close() error { return nil }
