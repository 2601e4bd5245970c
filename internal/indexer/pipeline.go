package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docqa/internal/indexer Embedder

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/vectorstore"
)

// Document is the plain text extracted from one source.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Embedder maps chunk texts to vectors of one model.
type Embedder interface {
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the embedding model identity.
	Model() string
	// Dimension returns the vector size, 0 until known.
	Dimension() int
}

// Pipeline turns documents into a persisted index, replacing the previous one.
type Pipeline struct {
	chunker  *Chunker
	embedder Embedder
	store    vectorstore.Store
	location string
	count    func(string) int
}

// NewPipeline creates a new indexing pipeline.
// count returns the token count of a chunk and only feeds the statistics.
func NewPipeline(chunker *Chunker, embedder Embedder, store vectorstore.Store, location string, count func(string) int) *Pipeline {
	if count == nil {
		count = func(s string) int { return len(strings.Fields(s)) }
	}
	return &Pipeline{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		location: location,
		count:    count,
	}
}

// Concatenate joins non-empty document texts in order, inserting a newline
// between documents when the text so far does not already end with one.
func Concatenate(docs []Document) string {
	var sb strings.Builder
	for _, d := range docs {
		if d.Text == "" {
			continue
		}
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(d.Text)
	}
	return sb.String()
}

// Index concatenates docs, chunks, embeds and saves the result as the new index.
// Empty text is valid and saves an empty index.
func (p *Pipeline) Index(ctx context.Context, docs []Document) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	text := Concatenate(docs)
	chunks := p.chunker.Split(text)

	logger.InfoContext(ctx, "starting indexing",
		"documents", len(docs),
		"text_length", len(text),
		"chunks", len(chunks),
		"chunk_size", p.chunker.Size(),
		"chunk_overlap", p.chunker.Overlap(),
	)

	embeddings, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate embeddings", "chunks", len(chunks), "error", err)
		return Stats{}, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	model := p.embedder.Model()
	ix, err := vectorstore.Build(model, chunks, embeddings)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to build index: %w", err)
	}

	if err := p.store.Save(ctx, p.location, ix); err != nil {
		logger.ErrorContext(ctx, "failed to save index", "location", p.location, "error", err)
		return Stats{}, fmt.Errorf("failed to save index: %w", err)
	}

	stats := ComputeStats(p.chunker, model, len(docs), chunks, p.count)
	stats.EmbeddingModel = model
	stats.Dimension = ix.Info().Dimension

	logger.InfoContext(ctx, "indexing completed",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"model", model,
		"dimension", stats.Dimension,
		"index_version", stats.IndexVersion,
	)
	return stats, nil
}
