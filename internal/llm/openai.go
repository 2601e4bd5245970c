package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient serves embeddings and completions from the OpenAI API
// or any server speaking the same protocol.
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel string
	chatModel      string
}

// NewOpenAIClient creates an OpenAI client. An empty baseURL uses the public API.
func NewOpenAIClient(apiKey, baseURL, embeddingModel, chatModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for openai")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

// EmbedTexts embeds all texts in one request.
func (o *OpenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.embeddingModel),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			vec[j] = float32(d.Embedding[j])
		}
		result[d.Index] = vec
	}
	for i, vec := range result {
		if vec == nil {
			return nil, fmt.Errorf("embedding %d missing from response", i)
		}
	}
	return result, nil
}

// Complete sends prompt as a single user message.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = o.chatModel
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
