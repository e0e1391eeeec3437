package language

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTranslateIdentity(t *testing.T) {
	tr := NewHTTPTranslator(TranslatorConfig{}, zap.NewNop())

	out, err := tr.Translate(context.Background(), "hello", EN, EN)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = tr.Translate(context.Background(), "", JA, EN)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTranslateNoServerDegrades(t *testing.T) {
	tr := NewHTTPTranslator(TranslatorConfig{}, zap.NewNop())

	out, err := tr.Translate(context.Background(), "診断基準", JA, EN)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranslationDegraded))
	assert.Equal(t, "診断基準", out, "degraded translation returns the original text")
}

func TestTranslateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/translate", r.URL.Path)

		var req translateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ja", req.Source)
		assert.Equal(t, "en", req.Target)
		assert.Equal(t, "診断基準", req.Text)

		json.NewEncoder(w).Encode(translateResponse{Translation: "diagnostic criteria"})
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(TranslatorConfig{BaseURL: srv.URL}, zap.NewNop())
	out, err := tr.Translate(context.Background(), "診断基準", JA, EN)
	require.NoError(t, err)
	assert.Equal(t, "diagnostic criteria", out)
}

func TestTranslateServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTPTranslator(TranslatorConfig{BaseURL: srv.URL}, zap.NewNop())
	out, err := tr.Translate(context.Background(), "hello", EN, JA)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranslationDegraded))
	assert.Equal(t, "hello", out)
}

func TestTranslateUnreachableDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tr := NewHTTPTranslator(TranslatorConfig{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	out, err := tr.Translate(context.Background(), "hello", EN, JA)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranslationDegraded))
	assert.Equal(t, "hello", out)
}
