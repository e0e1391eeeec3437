package server

// IngestRequest is the request body for POST /api/v1/ingest.
type IngestRequest struct {
	// DocumentID names the document. Generated when empty.
	DocumentID string `json:"document_id"`

	// Content is the document text.
	Content string `json:"content"`

	// Language is "en" or "ja". Detected when empty.
	Language string `json:"language,omitempty"`
}

// IngestResponse is the response body for POST /api/v1/ingest.
type IngestResponse struct {
	Success      bool   `json:"success"`
	DocumentID   string `json:"document_id"`
	Language     string `json:"language"`
	ChunksStored int    `json:"chunks_stored"`
}

// RetrieveRequest is the request body for POST /api/v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`

	// Language is "en" or "ja". Detected when empty.
	Language string `json:"language,omitempty"`

	// TopK is the number of results to return. Defaults to the configured
	// retrieval top_k.
	TopK int `json:"top_k,omitempty"`
}

// RetrievedDocument is one retrieval result.
type RetrievedDocument struct {
	// DocID identifies the chunk: "{document_id}_{sequence}".
	DocID string `json:"doc_id"`

	// DocumentID is the source document id.
	DocumentID string `json:"document_id"`

	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
	SourceLanguage  string  `json:"source_language"`
}

// RetrieveResponse is the response body for POST /api/v1/retrieve.
type RetrieveResponse struct {
	Success       bool                `json:"success"`
	Query         string              `json:"query"`
	QueryLanguage string              `json:"query_language"`
	Results       []RetrievedDocument `json:"results"`
	TotalResults  int                 `json:"total_results"`
}

// GenerateRequest is the request body for POST /api/v1/generate.
type GenerateRequest struct {
	Query string `json:"query"`

	// Language is the query language. Detected when empty.
	Language string `json:"language,omitempty"`

	// OutputLanguage is the answer language. Defaults to the query language.
	OutputLanguage string `json:"output_language,omitempty"`

	// IncludeSources includes the retrieved source documents in the
	// response. Defaults to true.
	IncludeSources *bool `json:"include_sources,omitempty"`
}

// GenerateResponse is the response body for POST /api/v1/generate.
type GenerateResponse struct {
	Success        bool                `json:"success"`
	Query          string              `json:"query"`
	Response       string              `json:"response"`
	OutputLanguage string              `json:"output_language"`
	SourceDocs     []RetrievedDocument `json:"source_documents"`
	SourcesUsed    int                 `json:"sources_used"`

	// TranslationDegraded reports that a translation step failed softly and
	// the answer quality may be reduced.
	TranslationDegraded bool `json:"translation_degraded,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	IndexReady    bool   `json:"index_ready"`
	ChunksIndexed int    `json:"chunks_indexed"`
}
