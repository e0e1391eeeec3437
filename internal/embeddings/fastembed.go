//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"time"

	fastembed "github.com/anush008/fastembed-go"
	"go.uber.org/zap"
)

// FastEmbedConfig holds configuration for the FastEmbed provider.
type FastEmbedConfig struct {
	// Model is the embedding model to use. The default is
	// intfloat/multilingual-e5-large, which embeds English and Japanese
	// text into one shared vector space.
	Model string

	// CacheDir is the directory where model files are cached.
	CacheDir string

	// MaxLength is the maximum input sequence length. Defaults to 512.
	MaxLength int

	// LoadTimeout bounds the initial model load (which may fetch weights
	// over the network). Zero means callers rely on their own context.
	LoadTimeout time.Duration
}

// modelMapping maps friendly model names to fastembed model constants.
var modelMapping = map[string]fastembed.EmbeddingModel{
	"intfloat/multilingual-e5-large":          fastembed.MLE5Large,
	"BAAI/bge-small-en-v1.5":                  fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                   fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2":  fastembed.AllMiniLML6V2,
	// Also accept the fastembed model names directly
	"fast-multilingual-e5-large": fastembed.MLE5Large,
	"fast-bge-small-en-v1.5":     fastembed.BGESmallENV15,
	"fast-bge-base-en-v1.5":      fastembed.BGEBaseENV15,
	"fast-all-MiniLM-L6-v2":      fastembed.AllMiniLML6V2,
}

// modelDimensions maps fastembed models to their embedding dimensions.
var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.MLE5Large:     1024,
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
	fastembed.AllMiniLML6V2: 384,
}

// passageBatchSize is the batch size handed to the underlying model for
// document embedding.
const passageBatchSize = 256

// FastEmbedProvider generates embeddings with a local ONNX model.
//
// The model is loaded lazily on the first embedding call and cached for the
// remainder of the process; concurrent first calls block on a single load.
type FastEmbedProvider struct {
	config    FastEmbedConfig
	dimension int
	model     *lazyCell[*fastembed.FlagEmbedding]
	metrics   *Metrics
	logger    *zap.Logger
}

// NewFastEmbedProvider validates the configuration and prepares the provider.
// The model itself is not loaded until the first embedding call.
func NewFastEmbedProvider(cfg FastEmbedConfig, logger *zap.Logger) (*FastEmbedProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	model, ok := modelMapping[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported model %q (supported: intfloat/multilingual-e5-large, BAAI/bge-small-en-v1.5, BAAI/bge-base-en-v1.5, sentence-transformers/all-MiniLM-L6-v2)", ErrInvalidConfig, cfg.Model)
	}

	p := &FastEmbedProvider{
		config:    cfg,
		dimension: modelDimensions[model],
		metrics:   NewMetrics(),
		logger:    logger,
	}
	p.model = newLazyCell(func() (*fastembed.FlagEmbedding, error) {
		return p.loadModel(model)
	})
	return p, nil
}

func (p *FastEmbedProvider) loadModel(model fastembed.EmbeddingModel) (*fastembed.FlagEmbedding, error) {
	maxLength := p.config.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}
	cacheDir := p.config.CacheDir
	if cacheDir == "" {
		cacheDir = "local_cache"
	}

	// Disable progress bar for server use
	showProgress := false

	start := time.Now()
	p.logger.Info("loading embedding model",
		zap.String("model", string(model)),
		zap.String("cache_dir", cacheDir),
	)

	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		p.logger.Error("embedding model load failed", zap.Error(err))
		return nil, err
	}

	p.logger.Info("embedding model loaded",
		zap.String("model", string(model)),
		zap.Int("dimension", p.dimension),
		zap.Duration("took", time.Since(start)),
	)
	return flagEmbed, nil
}

// get returns the loaded model, applying the configured load timeout on top
// of the caller's context.
func (p *FastEmbedProvider) get(ctx context.Context) (*fastembed.FlagEmbedding, error) {
	if p.config.LoadTimeout > 0 && !p.model.loaded() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.LoadTimeout)
		defer cancel()
	}
	return p.model.get(ctx)
}

// EmbedDocuments generates embeddings for multiple texts in one batched
// model call. E5 models embed documents with a "passage: " prefix.
func (p *FastEmbedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		p.metrics.RecordGeneration("embed_documents", time.Since(start), len(texts), genErr)
	}()

	if len(texts) == 0 {
		genErr = fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	model, err := p.get(ctx)
	if err != nil {
		genErr = err
		return nil, genErr
	}

	vectors, err := model.PassageEmbed(texts, passageBatchSize)
	if err != nil {
		genErr = fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		return nil, genErr
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query, with the model's
// "query: " prefix.
func (p *FastEmbedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		p.metrics.RecordGeneration("embed_query", time.Since(start), 1, genErr)
	}()

	if text == "" {
		genErr = fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	model, err := p.get(ctx)
	if err != nil {
		genErr = err
		return nil, genErr
	}

	vector, err := model.QueryEmbed(text)
	if err != nil {
		genErr = fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		return nil, genErr
	}
	return vector, nil
}

// Dimension returns the embedding dimension for the configured model.
func (p *FastEmbedProvider) Dimension() int {
	return p.dimension
}

// Close releases the model if it was loaded.
func (p *FastEmbedProvider) Close() error {
	if !p.model.loaded() {
		return nil
	}
	model, err := p.model.get(context.Background())
	if err != nil {
		return nil
	}
	model.Destroy()
	return nil
}
