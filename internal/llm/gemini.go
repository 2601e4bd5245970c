package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient serves embeddings and completions from Google Generative AI.
type GeminiClient struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
}

// NewGeminiClient creates a Gemini client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey, embeddingModel, chatModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for gemini")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:         client,
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// EmbedTexts embeds all texts in one batch request.
func (g *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	em := g.client.EmbeddingModel(g.embeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed contents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("embedding %d missing from response", i)
		}
		result[i] = e.Values
	}
	return result, nil
}

// Complete generates a single-turn answer to prompt.
func (g *GeminiClient) Complete(ctx context.Context, prompt string, params ChatParams) (string, error) {
	name := params.Model
	if name == "" {
		name = g.chatModel
	}

	model := g.client.GenerativeModel(name)
	model.SetTemperature(params.Temperature)
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("no content returned")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
