package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_services.go -package=mocks docqa/internal/llm EmbeddingService,CompletionService

import "context"

// EmbeddingService maps texts to vectors using a remote embedding model.
type EmbeddingService interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionService produces a completion for a single prompt.
type CompletionService interface {
	// Complete sends prompt to the language model and returns its reply.
	Complete(ctx context.Context, prompt string, params ChatParams) (string, error)
}

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}
