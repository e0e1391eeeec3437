//go:build cgo

package embeddings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFastEmbedProviderValidatesModel(t *testing.T) {
	_, err := NewFastEmbedProvider(FastEmbedConfig{Model: "no-such-model"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestNewFastEmbedProviderDimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{model: "intfloat/multilingual-e5-large", want: 1024},
		{model: "fast-multilingual-e5-large", want: 1024},
		{model: "BAAI/bge-small-en-v1.5", want: 384},
		{model: "BAAI/bge-base-en-v1.5", want: 768},
		{model: "sentence-transformers/all-MiniLM-L6-v2", want: 384},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := NewFastEmbedProvider(FastEmbedConfig{Model: tt.model}, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Dimension())

			// Construction must not load the model.
			assert.False(t, p.model.loaded())
			require.NoError(t, p.Close())
		})
	}
}
