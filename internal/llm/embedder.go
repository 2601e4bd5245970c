package llm

import (
	"context"
	"sync/atomic"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
)

// Embedder maps chunks and queries to vectors with a single model identity.
// Every vector it returns has the same dimension.
type Embedder struct {
	service   EmbeddingService
	model     string
	dimension atomic.Int64
	limiter   *Limiter
	batchSize int
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithLimiter throttles every call to the embedding service.
func WithLimiter(l *Limiter) EmbedderOption {
	return func(e *Embedder) { e.limiter = l }
}

// WithBatchSize caps the number of texts sent per service call.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

const defaultBatchSize = 100

// NewEmbedder creates an Embedder. dimension 0 adopts the size of the first
// vector the service returns.
func NewEmbedder(service EmbeddingService, model string, dimension int, opts ...EmbedderOption) (*Embedder, error) {
	if model == "" {
		return nil, &apperrors.ValidationError{Field: "embedding_model", Message: "cannot be empty"}
	}
	if dimension < 0 {
		return nil, &apperrors.ValidationError{Field: "embedding_dimension", Message: "must not be negative"}
	}
	e := &Embedder{
		service:   service,
		model:     model,
		batchSize: defaultBatchSize,
	}
	e.dimension.Store(int64(dimension))
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Model returns the embedding model identity.
func (e *Embedder) Model() string {
	return e.model
}

// Dimension returns the vector size, 0 until it is known.
func (e *Embedder) Dimension() int {
	return int(e.dimension.Load())
}

// Embed returns one vector per text, in order. Empty input makes no call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, apperrors.Embedding("embed texts", err)
		}

		vectors, err := e.service.EmbedTexts(ctx, batch)
		if err != nil {
			logger.ErrorContext(ctx, "embedding request failed",
				"model", e.model,
				"batch_start", start,
				"batch_size", len(batch),
				"error", err,
			)
			return nil, apperrors.Embedding("embed texts", err)
		}
		if len(vectors) != len(batch) {
			return nil, apperrors.Embedding("embed texts",
				apperrors.Mismatch("expected %d embeddings, got %d", len(batch), len(vectors)))
		}

		for i, vec := range vectors {
			if len(vec) == 0 {
				return nil, apperrors.Embedding("embed texts",
					apperrors.Mismatch("embedding %d is empty", start+i))
			}
			e.dimension.CompareAndSwap(0, int64(len(vec)))
			if want := e.Dimension(); len(vec) != want {
				return nil, apperrors.Mismatch("embedding %d has size %d, expected %d", start+i, len(vec), want)
			}
		}
		out = append(out, vectors...)
	}

	logger.DebugContext(ctx, "embedded texts",
		"model", e.model,
		"count", len(out),
		"dimension", e.Dimension(),
	)

	return out, nil
}

// EmbedOne embeds a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
