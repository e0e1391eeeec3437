package language

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrTranslationDegraded indicates the translation model could not be used
// and the original text was returned unchanged. It is a soft failure: a
// caller should continue with the untranslated text and report the degraded
// quality rather than abort the request.
var ErrTranslationDegraded = errors.New("translation degraded")

// Translator translates text between the supported languages.
type Translator interface {
	// Translate converts text from src to dst. When src == dst the input is
	// returned unchanged. On any model error the input is returned unchanged
	// together with an error wrapping ErrTranslationDegraded.
	Translate(ctx context.Context, text string, src, dst Language) (string, error)
}

// TranslatorConfig holds configuration for the HTTP translator.
type TranslatorConfig struct {
	// BaseURL is the base URL of the translation server (opus-mt style).
	// When empty, every cross-language call degrades to the original text.
	BaseURL string

	// Timeout bounds a single translation request.
	Timeout time.Duration
}

// HTTPTranslator calls an external translation server. The model behind the
// endpoint is a black box; the only contract is the request/response shape.
type HTTPTranslator struct {
	config TranslatorConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPTranslator creates a translator backed by an HTTP translation server.
func NewHTTPTranslator(cfg TranslatorConfig, logger *zap.Logger) *HTTPTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTranslator{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

// Translate implements Translator.
func (t *HTTPTranslator) Translate(ctx context.Context, text string, src, dst Language) (string, error) {
	if src == dst || text == "" {
		return text, nil
	}
	if t.config.BaseURL == "" {
		return text, fmt.Errorf("%w: no translation server configured", ErrTranslationDegraded)
	}

	translated, err := t.translate(ctx, text, src, dst)
	if err != nil {
		t.logger.Warn("translation failed, continuing with original text",
			zap.String("source", string(src)),
			zap.String("target", string(dst)),
			zap.Error(err),
		)
		return text, fmt.Errorf("%w: %v", ErrTranslationDegraded, err)
	}
	return translated, nil
}

func (t *HTTPTranslator) translate(ctx context.Context, text string, src, dst Language) (string, error) {
	body, err := json.Marshal(translateRequest{
		Text:   text,
		Source: string(src),
		Target: string(dst),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Translation == "" {
		return "", fmt.Errorf("empty translation in response")
	}
	return out.Translation, nil
}
