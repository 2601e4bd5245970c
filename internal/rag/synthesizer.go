package rag

import (
	"context"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

// DefaultTemperature keeps answers close to the context.
const DefaultTemperature float32 = 0.3

// Synthesizer answers a question from retrieved chunks under the grounding prompt.
type Synthesizer struct {
	completion  llm.CompletionService
	model       string
	temperature float32
	limiter     *llm.Limiter
	tokens      *llm.TokenCounter
}

// NewSynthesizer creates a Synthesizer. An empty model uses the service default.
func NewSynthesizer(completion llm.CompletionService, model string, temperature float32, limiter *llm.Limiter, tokens *llm.TokenCounter) *Synthesizer {
	return &Synthesizer{
		completion:  completion,
		model:       model,
		temperature: temperature,
		limiter:     limiter,
		tokens:      tokens,
	}
}

// Answer makes one completion call with all chunks in order. With no chunks
// the not-found answer is returned without calling the model.
func (s *Synthesizer) Answer(ctx context.Context, question string, chunks []string) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no context chunks, answering not found")
		return Answer{Text: NotFoundAnswer, NotFound: true}, nil
	}

	prompt := BuildPrompt(FormatContext(chunks), question)
	logger.InfoContext(ctx, "sending request to LLM",
		"model", s.model,
		"chunks", len(chunks),
		"prompt_length", len(prompt),
		"prompt_tokens", s.tokens.Count(prompt),
		"temperature", s.temperature,
	)

	if err := s.limiter.Wait(ctx); err != nil {
		return Answer{}, apperrors.Synthesis("complete", err)
	}

	reply, err := s.completion.Complete(ctx, prompt, llm.ChatParams{
		Model:       s.model,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return Answer{}, apperrors.Synthesis("complete", err)
	}

	answer := Answer{Text: reply, NotFound: IsNotFound(reply)}
	logger.InfoContext(ctx, "received LLM response", "answer_length", len(reply), "not_found", answer.NotFound)
	return answer, nil
}
