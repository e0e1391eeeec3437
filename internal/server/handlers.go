package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/assembler"
	"github.com/medrag-labs/medragd/internal/chunker"
	"github.com/medrag-labs/medragd/internal/embeddings"
	"github.com/medrag-labs/medragd/internal/index"
	"github.com/medrag-labs/medragd/internal/language"
	"github.com/medrag-labs/medragd/internal/pipeline"
)

// sourceContentLimit truncates cited source text in generate responses.
const sourceContentLimit = 200

// handleIngest ingests one document into the index.
func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}

	lang, err := parseOptionalLanguage(req.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	if lang == "" {
		lang = language.Detect(req.Content)
	}

	stored, err := s.pipeline.Ingest(c.Request().Context(), documentID, req.Content, lang)
	if err != nil {
		return s.pipelineError(c, "ingest failed", err)
	}

	return c.JSON(http.StatusOK, IngestResponse{
		Success:      true,
		DocumentID:   documentID,
		Language:     string(lang),
		ChunksStored: stored,
	})
}

// handleRetrieve returns the chunks most similar to the query.
func (s *Server) handleRetrieve(c echo.Context) error {
	var req RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(strings.TrimSpace(req.Query)) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "query must be at least 3 characters")
	}

	lang, err := parseOptionalLanguage(req.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, queryLang, err := s.pipeline.Retrieve(c.Request().Context(), req.Query, lang, topK)
	if err != nil {
		return s.pipelineError(c, "retrieve failed", err)
	}

	return c.JSON(http.StatusOK, RetrieveResponse{
		Success:       true,
		Query:         req.Query,
		QueryLanguage: string(queryLang),
		Results:       toDocuments(results, 0),
		TotalResults:  len(results),
	})
}

// handleGenerate assembles a templated answer from retrieved chunks.
func (s *Server) handleGenerate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(strings.TrimSpace(req.Query)) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "query must be at least 3 characters")
	}

	queryLang, err := parseOptionalLanguage(req.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if queryLang == "" {
		queryLang = language.Detect(req.Query)
	}

	outputLang := queryLang
	if req.OutputLanguage != "" {
		outputLang, err = parseOptionalLanguage(req.OutputLanguage)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	ctx := c.Request().Context()
	results, _, err := s.pipeline.Retrieve(ctx, req.Query, queryLang, s.topK)
	if err != nil {
		return s.pipelineError(c, "generate failed", err)
	}

	// Topic classification works best on English text; translate Japanese
	// queries first. Translation failures degrade softly: the original query
	// still carries Japanese topic keywords.
	degraded := false
	classifyQuery := req.Query
	if queryLang == language.JA {
		translated, terr := s.translator.Translate(ctx, req.Query, language.JA, language.EN)
		if terr != nil {
			if !errors.Is(terr, language.ErrTranslationDegraded) {
				return s.pipelineError(c, "generate failed", terr)
			}
			degraded = true
		}
		classifyQuery = translated
	}

	answer := assembler.Generate(classifyQuery, outputLang, len(results))

	resp := GenerateResponse{
		Success:             true,
		Query:               req.Query,
		Response:            answer,
		OutputLanguage:      string(outputLang),
		SourcesUsed:         len(results),
		TranslationDegraded: degraded,
	}
	if req.IncludeSources == nil || *req.IncludeSources {
		resp.SourceDocs = toDocuments(results, sourceContentLimit)
	}
	return c.JSON(http.StatusOK, resp)
}

// toDocuments converts pipeline results to response documents, optionally
// truncating content to limit runes.
func toDocuments(results []pipeline.SearchResult, limit int) []RetrievedDocument {
	docs := make([]RetrievedDocument, len(results))
	for i, r := range results {
		content := r.Chunk.Text
		if limit > 0 {
			if runes := []rune(content); len(runes) > limit {
				content = string(runes[:limit])
			}
		}
		docs[i] = RetrievedDocument{
			DocID:           fmt.Sprintf("%s_%d", r.Chunk.DocumentID, r.Chunk.Sequence),
			DocumentID:      r.Chunk.DocumentID,
			Content:         content,
			SimilarityScore: r.Score,
			SourceLanguage:  string(r.Chunk.Language),
		}
	}
	return docs
}

func parseOptionalLanguage(s string) (language.Language, error) {
	if s == "" {
		return "", nil
	}
	return language.Parse(s)
}

// pipelineError maps pipeline failures to HTTP status codes.
func (s *Server) pipelineError(c echo.Context, msg string, err error) error {
	s.logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)

	switch {
	case errors.Is(err, pipeline.ErrEmptyDocument),
		errors.Is(err, chunker.ErrInvalidConfig),
		errors.Is(err, embeddings.ErrEmptyInput),
		errors.Is(err, index.ErrInvalidK):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, embeddings.ErrEmbeddingUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "embedding model unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msg)
	}
}
