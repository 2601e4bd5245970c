package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docqa/internal/apperrors"
	"docqa/internal/indexer"
	"docqa/internal/rag"
	"docqa/internal/rag/mocks"

	"go.uber.org/mock/gomock"
)

type upload struct {
	name    string
	content string
}

func multipartBody(t *testing.T, field string, files []upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestIngestHandler_Multipart(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	wantDocs := []indexer.Document{
		{Name: "france.txt", Text: "Paris is the capital of France."},
		{Name: "germany.md", Text: "Germany\n\nBerlin is the capital."},
	}
	engine.EXPECT().Ingest(gomock.Any(), wantDocs).Return(rag.IngestResult{Stats: indexer.Stats{
		Documents:      2,
		Chunks:         2,
		EmbeddingModel: "models/embedding-001",
		Dimension:      768,
	}}, nil)

	body, contentType := multipartBody(t, "files", []upload{
		{"france.txt", "Paris is the capital of France."},
		{"germany.md", "# Germany\n\nBerlin is the capital.\n"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	NewIngestHandler(engine, 0).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["chunks"] != float64(2) || resp["documents"] != float64(2) {
		t.Errorf("response counts = %v/%v, want 2/2", resp["chunks"], resp["documents"])
	}
	if resp["embedding_model"] != "models/embedding-001" || resp["dimension"] != float64(768) {
		t.Errorf("response model = %v dim %v", resp["embedding_model"], resp["dimension"])
	}
	if resp["message"] == "" {
		t.Error("response message is empty")
	}
}

func TestIngestHandler_JSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	engine.EXPECT().Ingest(gomock.Any(), []indexer.Document{{Name: "a", Text: "alpha"}}).
		Return(rag.IngestResult{Stats: indexer.Stats{Documents: 1, Chunks: 1}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
		strings.NewReader(`{"documents":[{"name":"a","text":"alpha"}]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	NewIngestHandler(engine, 0).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestIngestHandler_Rejections(t *testing.T) {
	tests := []struct {
		name           string
		request        func(t *testing.T) *http.Request
		maxUploadBytes int64
		setup          func(m *mocks.MockEngine)
		expectedStatus int
		wantMessage    string
	}{
		{
			name: "no files",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "files", nil)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "Please upload at least one document",
		},
		{
			name: "files under another field",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "attachments", []upload{{"a.txt", "alpha"}})
				req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "Please upload at least one document",
		},
		{
			name: "empty body",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(""))
			},
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "Please upload at least one document",
		},
		{
			name: "empty document list",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(`{"documents":[]}`))
			},
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "Please upload at least one document",
		},
		{
			name: "invalid json",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(`{"documents":`))
			},
			expectedStatus: http.StatusBadRequest,
			wantMessage:    "Invalid request body",
		},
		{
			name: "unreadable pdf",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "files", []upload{{"broken.pdf", "not a pdf"}})
				req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "upload too large",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "files", []upload{{"big.txt", strings.Repeat("x", 4096)}})
				req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			maxUploadBytes: 1024,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "invalid chunk settings",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(`{"documents":[{"name":"a","text":"alpha"}]}`))
			},
			setup: func(m *mocks.MockEngine) {
				m.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(rag.IngestResult{},
					&apperrors.ValidationError{Field: "overlap", Message: "must be smaller than size"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "embedding service failure",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/ingest", strings.NewReader(`{"documents":[{"name":"a","text":"alpha"}]}`))
			},
			setup: func(m *mocks.MockEngine) {
				m.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(rag.IngestResult{},
					apperrors.Embedding("embed chunks", errors.New("invalid api key")))
			},
			expectedStatus: http.StatusBadGateway,
			wantMessage:    apperrors.Message(apperrors.Embedding("embed chunks", nil)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := mocks.NewMockEngine(ctrl)
			if tt.setup != nil {
				tt.setup(engine)
			}

			w := httptest.NewRecorder()
			NewIngestHandler(engine, tt.maxUploadBytes).ServeHTTP(w, tt.request(t))

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if tt.wantMessage != "" && errResp.Error != tt.wantMessage {
				t.Errorf("error = %q, want %q", errResp.Error, tt.wantMessage)
			}
			if errResp.Error == "" {
				t.Error("error response has empty message")
			}
		})
	}
}
