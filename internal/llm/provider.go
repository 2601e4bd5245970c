package llm

import (
	"context"
	"fmt"

	"docqa/internal/apperrors"
)

// Supported providers.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderLlamaCPP = "llamacpp"
)

// ProviderConfig selects and configures the embedding and completion backends.
type ProviderConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
}

// Services bundles the capability interfaces of one provider.
type Services struct {
	Embeddings EmbeddingService
	Completion CompletionService
	closeFn    func() error
}

// Close releases provider resources.
func (s *Services) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// NewServices builds the services for cfg.Provider.
func NewServices(ctx context.Context, cfg ProviderConfig) (*Services, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini services: %w", err)
		}
		return &Services{Embeddings: client, Completion: client, closeFn: client.Close}, nil
	case ProviderOpenAI:
		client, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.EmbeddingModel, cfg.ChatModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai services: %w", err)
		}
		return &Services{Embeddings: client, Completion: client}, nil
	case ProviderLlamaCPP:
		return &Services{
			Embeddings: NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.APIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension),
			Completion: NewClient(cfg.BaseURL, cfg.APIKey, cfg.ChatModel),
		}, nil
	default:
		return nil, &apperrors.ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unknown provider %q", cfg.Provider)}
	}
}
