package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks docqa/internal/rag Engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/indexer"
	"docqa/internal/vectorstore"
)

// DefaultK is the number of chunks retrieved per question.
const DefaultK = 4

// Engine ingests documents and answers questions grounded in them.
type Engine interface {
	// Ingest replaces the index with one built from docs.
	Ingest(ctx context.Context, docs []indexer.Document) (IngestResult, error)
	// Query answers question from the stored index.
	// It returns an error matching apperrors.ErrIndexNotFound before the first ingest.
	Query(ctx context.Context, question string) (QueryResult, error)
	// Status describes the stored index.
	Status(ctx context.Context) (Status, error)
}

// QueryEmbedder embeds questions with the model used for the index.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Config holds the retrieval settings of an Engine.
type Config struct {
	// Location is the index handle understood by the store.
	Location string
	// K is the number of chunks retrieved; 0 means DefaultK.
	K int
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	indexer     *indexer.Pipeline
	embedder    QueryEmbedder
	store       vectorstore.Store
	synthesizer *Synthesizer
	location    string
	k           int
}

// NewEngine creates a new RAG engine.
func NewEngine(
	cfg Config,
	indexPipeline *indexer.Pipeline,
	embedder QueryEmbedder,
	store vectorstore.Store,
	synthesizer *Synthesizer,
) (Engine, error) {
	k := cfg.K
	if k == 0 {
		k = DefaultK
	}
	if k < 0 {
		return nil, &apperrors.ValidationError{Field: "k", Message: "must be greater than 0"}
	}
	if cfg.Location == "" {
		return nil, &apperrors.ValidationError{Field: "index_location", Message: "cannot be empty"}
	}

	return &ragEngine{
		indexer:     indexPipeline,
		embedder:    embedder,
		store:       store,
		synthesizer: synthesizer,
		location:    cfg.Location,
		k:           k,
	}, nil
}

// Ingest replaces the index with one built from docs.
func (e *ragEngine) Ingest(ctx context.Context, docs []indexer.Document) (IngestResult, error) {
	stats, err := e.indexer.Index(ctx, docs)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Stats: stats}, nil
}

// Query answers question from the stored index.
func (e *ragEngine) Query(ctx context.Context, question string) (QueryResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return QueryResult{}, &apperrors.ValidationError{Field: "question", Message: "cannot be empty"}
	}

	logger.InfoContext(ctx, "RAG query started", "question_length", len(question), "k", e.k)

	searcher, err := e.store.Load(ctx, e.location)
	if err != nil {
		if errors.Is(err, apperrors.ErrIndexNotFound) {
			logger.InfoContext(ctx, "no index to query", "location", e.location)
		} else {
			logger.ErrorContext(ctx, "failed to load index", "location", e.location, "error", err)
		}
		return QueryResult{}, fmt.Errorf("failed to load index: %w", err)
	}

	info := searcher.Info()
	var results []vectorstore.Result
	if info.Count > 0 {
		if info.Model != e.embedder.Model() {
			return QueryResult{}, apperrors.Mismatch("index was built with %q, queries use %q", info.Model, e.embedder.Model())
		}

		queryVector, err := e.embedder.EmbedOne(ctx, question)
		if err != nil {
			logger.ErrorContext(ctx, "failed to embed question", "error", err)
			return QueryResult{}, fmt.Errorf("failed to embed question: %w", err)
		}

		results, err = searcher.Search(ctx, queryVector, e.k)
		if err != nil {
			logger.ErrorContext(ctx, "failed to search index", "error", err)
			return QueryResult{}, fmt.Errorf("failed to search index: %w", err)
		}
	}

	logger.InfoContext(ctx, "vector search completed", "results_count", len(results), "k_requested", e.k, "index_size", info.Count)
	if len(results) > 0 {
		topScores := make([]float32, 0, 3)
		for i := 0; i < len(results) && i < 3; i++ {
			topScores = append(topScores, results[i].Score)
		}
		logger.DebugContext(ctx, "top search results", "top_3_scores", topScores)
	}

	answer, err := e.synthesizer.Answer(ctx, question, vectorstore.Texts(results))
	if err != nil {
		return QueryResult{}, err
	}

	logger.InfoContext(ctx, "RAG query completed", "chunks_used", len(results), "answer_length", len(answer.Text), "not_found", answer.NotFound)

	if results == nil {
		results = []vectorstore.Result{}
	}
	return QueryResult{Answer: answer, Retrieved: results}, nil
}

// Status describes the stored index.
func (e *ragEngine) Status(ctx context.Context) (Status, error) {
	searcher, err := e.store.Load(ctx, e.location)
	if errors.Is(err, apperrors.ErrIndexNotFound) {
		return Status{Ready: false}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to load index: %w", err)
	}

	info := searcher.Info()
	return Status{
		Ready:     true,
		Model:     info.Model,
		Dimension: info.Dimension,
		Chunks:    info.Count,
	}, nil
}
