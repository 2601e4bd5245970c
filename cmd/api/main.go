package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/http"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions from the content of uploaded documents only.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: DocQA API
//   description: |
//     Upload PDF, markdown or text documents, then ask questions about them.
//     Answers are grounded in the retrieved document chunks; when the answer
//     is not in the documents the API says so.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Embedding and completion services for the configured provider
	services, err := llm.NewServices(ctx, llm.ProviderConfig{
		Provider:           cfg.LLMProvider,
		APIKey:             cfg.LLMAPIKey,
		BaseURL:            cfg.LLMBaseURL,
		EmbeddingBaseURL:   cfg.EmbeddingBaseURL,
		EmbeddingModel:     cfg.EmbeddingModelName,
		EmbeddingDimension: cfg.EmbeddingDimension,
		ChatModel:          cfg.LLMModelName,
	})
	if err != nil {
		log.Fatalf("Failed to create %s services: %v", cfg.LLMProvider, err)
	}
	defer func() {
		_ = services.Close()
	}()
	slog.Info("LLM provider ready", "provider", cfg.LLMProvider, "embedding_model", cfg.EmbeddingModelName, "chat_model", cfg.LLMModelName)

	embedder, err := llm.NewEmbedder(services.Embeddings, cfg.EmbeddingModelName, cfg.EmbeddingDimension,
		llm.WithLimiter(llm.NewLimiter(cfg.EmbeddingRPM)))
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	tokens, err := llm.NewTokenCounter(cfg.TokenEncoding)
	if err != nil {
		slog.Warn("Token encoding unavailable, estimating token counts", "encoding", cfg.TokenEncoding, "error", err)
	}

	store, location, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s index store: %v", cfg.IndexBackend, err)
	}
	defer closeStore()
	slog.Info("Index store ready", "backend", cfg.IndexBackend, "location", location)

	chunker, err := indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}
	indexerPipeline := indexer.NewPipeline(chunker, embedder, store, location, tokens.Count)

	synthesizer := rag.NewSynthesizer(services.Completion, cfg.LLMModelName, cfg.LLMTemperature,
		llm.NewLimiter(cfg.LLMRPM), tokens)

	ragEngine, err := rag.NewEngine(rag.Config{Location: location, K: cfg.RetrievalK},
		indexerPipeline, embedder, store, synthesizer)
	if err != nil {
		log.Fatalf("Failed to create RAG engine: %v", err)
	}
	slog.Info("RAG engine initialized", "k", cfg.RetrievalK, "chunk_size", cfg.ChunkSize, "chunk_overlap", cfg.ChunkOverlap)

	if cfg.DocsPath != "" {
		if err := ingestDir(ctx, ragEngine, cfg.DocsPath); err != nil {
			slog.Error("Startup ingest failed", "path", cfg.DocsPath, "error", err)
		}
	}

	router := http.NewRouter(&http.Deps{
		Engine:         ragEngine,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
}

// newStore opens the configured index backend and returns the location
// handle the backend expects.
func newStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, string, func(), error) {
	switch cfg.IndexBackend {
	case "qdrant":
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, "", nil, err
		}
		return store, filepath.Base(cfg.IndexLocation), func() { _ = store.Close() }, nil
	case "pgvector":
		store, err := vectorstore.NewPgvectorStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, "", nil, err
		}
		return store, filepath.Base(cfg.IndexLocation), store.Close, nil
	default:
		return vectorstore.NewFileStore(), cfg.IndexLocation, func() {}, nil
	}
}

// ingestDir indexes every supported document under dir.
func ingestDir(ctx context.Context, engine rag.Engine, dir string) error {
	docs, err := extract.ScanDir(ctx, dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		slog.Warn("No documents found to ingest", "path", dir)
		return nil
	}

	stats, err := engine.Ingest(ctx, docs)
	if err != nil {
		return err
	}
	slog.Info("Startup ingest complete", "documents", stats.Documents, "chunks", stats.Chunks, "model", stats.EmbeddingModel)
	return nil
}
