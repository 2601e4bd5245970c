package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		params     ChatParams
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name:   "successful completion",
			prompt: "Context: Paris is the capital.\nQuestion: capital?",
			params: ChatParams{Temperature: 0.3},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
					t.Errorf("expected a single user message, got %+v", req.Messages)
				}
				if req.Temperature != 0.3 {
					t.Errorf("temperature = %v, want 0.3", req.Temperature)
				}
				if req.Model != "test-model" {
					t.Errorf("model = %s, want test-model", req.Model)
				}

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{
						{
							Index: 0,
							Message: ChatChoiceMessage{
								Role:    "assistant",
								Content: "Paris",
							},
							FinishReason: "stop",
						},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "Paris",
		},
		{
			name:   "model override",
			prompt: "Hello",
			params: ChatParams{Model: "custom-model", MaxTokens: 100},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req) // Ignore decode error in test
				if req.Model != "custom-model" {
					t.Errorf("model = %s, want custom-model", req.Model)
				}
				if req.MaxTokens != 100 {
					t.Errorf("max_tokens = %d, want 100", req.MaxTokens)
				}
				resp := ChatResponse{Choices: []ChatChoice{{Message: ChatChoiceMessage{Content: "Response"}}}}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "Response",
		},
		{
			name:   "no choices returned",
			prompt: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := ChatResponse{
					ID:      "test-id",
					Object:  "chat.completion",
					Choices: []ChatChoice{},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name:   "server error",
			prompt: "Hello",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.Complete(context.Background(), tt.prompt, tt.params)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Complete() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Complete() unexpected error: %v", err)
				return
			}

			if reply != tt.wantReply {
				t.Errorf("Complete() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req) // Ignore decode error in test

		if len(req.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(req.Messages))
		}

		resp := ChatResponse{
			ID:     "test-id",
			Object: "chat.completion",
			Choices: []ChatChoice{
				{
					Index: 0,
					Message: ChatChoiceMessage{
						Role:    "assistant",
						Content: "Response",
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")

	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "Hello"},
	}

	reply, err := client.ChatWithMessages(context.Background(), messages, ChatParams{Temperature: 0.7})
	if err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}

	if reply != "Response" {
		t.Errorf("ChatWithMessages() reply = %v, want Response", reply)
	}
}
