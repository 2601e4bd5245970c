package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
)

// QueryHandler handles HTTP requests for questions over the ingested documents.
type QueryHandler struct {
	engine rag.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// QueryRequest represents the HTTP request payload for a question.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse represents the HTTP response payload for a question.
//
// swagger:model QueryResponse
type QueryResponse struct {
	// The grounded answer, or the not-found sentence
	Answer string `json:"answer"`

	// NotFound is true when the answer is not available in the documents.
	NotFound bool `json:"not_found"`

	// Debug contains the retrieved chunks when debug mode is enabled (via ?debug=true query parameter).
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains debug information when debug mode is enabled.
//
// swagger:model DebugInfo
type DebugInfo struct {
	// RetrievedChunks contains all retrieved chunks with scores and ranks.
	RetrievedChunks []DebugRetrievedChunk `json:"retrieved_chunks"`
}

// DebugRetrievedChunk represents a retrieved chunk with scoring information.
//
// swagger:model DebugRetrievedChunk
type DebugRetrievedChunk struct {
	// Text is the chunk text.
	Text string `json:"text"`
	// Score is the cosine similarity to the question.
	Score float32 `json:"score"`
	// Position is the chunk's position in the ingested text.
	Position int `json:"position"`
	// Rank is the rank of this chunk in the retrieval results (1-based).
	Rank int `json:"rank"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/query askQuestion
//
// # Ask a question about the ingested documents
//
// Retrieves the chunks most similar to the question and answers from them only.
// Use the `debug=true` query parameter to include the retrieved chunks.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Successful response with answer
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Bad request (empty question)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: No index has been built yet
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Index built with a different embedding model
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding or language model service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	result, err := h.engine.Query(ctx, req.Question)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := QueryResponse{
		Answer:   result.Text,
		NotFound: result.NotFound,
	}

	if debug {
		chunks := make([]DebugRetrievedChunk, 0, len(result.Retrieved))
		for i, chunk := range result.Retrieved {
			chunks = append(chunks, DebugRetrievedChunk{
				Text:     chunk.Text,
				Score:    chunk.Score,
				Position: chunk.Position,
				Rank:     i + 1,
			})
		}
		resp.Debug = &DebugInfo{RetrievedChunks: chunks}
	}

	logger.InfoContext(ctx, "question answered", "not_found", resp.NotFound, "retrieved", len(result.Retrieved))
	writeJSON(ctx, w, http.StatusOK, resp)
}
