package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/rag"
)

// DefaultMaxUploadBytes bounds an ingest request body when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// IngestHandler handles HTTP requests that upload and index documents.
type IngestHandler struct {
	engine         rag.Engine
	maxUploadBytes int64
}

// NewIngestHandler creates a new IngestHandler. A non-positive maxUploadBytes
// selects DefaultMaxUploadBytes.
func NewIngestHandler(engine rag.Engine, maxUploadBytes int64) *IngestHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &IngestHandler{
		engine:         engine,
		maxUploadBytes: maxUploadBytes,
	}
}

// IngestRequest is the JSON form of an ingest: documents with their text.
//
// swagger:model IngestRequest
type IngestRequest struct {
	Documents []indexer.Document `json:"documents"`
}

// IngestResponse represents the response from the ingest endpoint.
//
// swagger:model IngestResponse
type IngestResponse struct {
	Message string `json:"message"`
	rag.IngestResult
}

// ServeHTTP handles document uploads.
//
// swagger:route POST /api/v1/ingest ingestDocuments
//
// # Upload documents and rebuild the index
//
// Accepts a multipart form with one or more `files` (PDF, markdown or text)
// or a JSON body with documents. The previous index is replaced.
//
// ---
// consumes:
// - multipart/form-data
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Index rebuilt
//	  schema:
//	    "$ref": "#/definitions/IngestResponse"
//	'400':
//	  description: No documents, unreadable file or invalid settings
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: Upload too large
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	docs, err := h.readDocuments(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			logger.WarnContext(ctx, "upload too large", "limit_bytes", maxBytesErr.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d MB", h.maxUploadBytes>>20))
			return
		}
		var badRequest *requestError
		if errors.As(err, &badRequest) {
			logger.WarnContext(ctx, "invalid ingest request", "error", err)
			writeError(w, http.StatusBadRequest, badRequest.message)
			return
		}
		writeServiceError(ctx, w, err)
		return
	}

	if len(docs) == 0 {
		logger.WarnContext(ctx, "ingest without documents")
		writeError(w, http.StatusBadRequest, "Please upload at least one document")
		return
	}

	logger.InfoContext(ctx, "ingest requested", "documents", len(docs))

	result, err := h.engine.Ingest(ctx, docs)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, IngestResponse{
		Message:      "Processing complete",
		IngestResult: result,
	})
}

// requestError is a malformed request with the message to return.
type requestError struct {
	message string
	err     error
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s: %v", e.message, e.err)
}

func (e *requestError) Unwrap() error {
	return e.err
}

// readDocuments decodes the request body into documents, extracting the
// text of uploaded files.
func (h *IngestHandler) readDocuments(r *http.Request) ([]indexer.Document, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, err
			}
			return nil, &requestError{message: "Invalid multipart form", err: err}
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		files := r.MultipartForm.File["files"]
		docs := make([]indexer.Document, 0, len(files))
		for _, fh := range files {
			doc, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &requestError{message: "Invalid request body", err: err}
	}
	return req.Documents, nil
}

func readFile(fh *multipart.FileHeader) (indexer.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return indexer.Document{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return indexer.Document{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	text, err := extract.Extract(fh.Filename, data)
	if err != nil {
		return indexer.Document{}, err
	}
	return indexer.Document{Name: fh.Filename, Text: text}, nil
}
