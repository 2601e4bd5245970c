package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
)

// PgvectorStore keeps indexes in Postgres with the pgvector extension.
// The location is a key in rag_indexes; Save replaces its rows in one transaction.
type PgvectorStore struct {
	pool *pgxpool.Pool
}

// NewPgvectorStore connects to Postgres and creates the tables if needed.
func NewPgvectorStore(ctx context.Context, connStr string) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PgvectorStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *PgvectorStore) Close() {
	s.pool.Close()
}

func (s *PgvectorStore) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS rag_indexes (
			location TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS rag_chunks (
			location TEXT NOT NULL REFERENCES rag_indexes(location) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			embedding vector NOT NULL,
			PRIMARY KEY (location, position)
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate pgvector schema: %w", err)
		}
	}
	return nil
}

// Save replaces the index stored under location.
func (s *PgvectorStore) Save(ctx context.Context, location string, ix *Index) error {
	logger := contextutil.LoggerFromContext(ctx)

	if location == "" {
		return &apperrors.ValidationError{Field: "index_location", Message: "cannot be empty"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	info := ix.Info()
	_, err = tx.Exec(ctx, `
		INSERT INTO rag_indexes (location, model, dimension, chunk_count, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (location) DO UPDATE SET
			model = EXCLUDED.model,
			dimension = EXCLUDED.dimension,
			chunk_count = EXCLUDED.chunk_count,
			updated_at = EXCLUDED.updated_at`,
		location, info.Model, info.Dimension, info.Count,
	)
	if err != nil {
		return fmt.Errorf("failed to write index row: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM rag_chunks WHERE location = $1", location); err != nil {
		return fmt.Errorf("failed to delete previous chunks: %w", err)
	}

	if len(ix.entries) > 0 {
		batch := &pgx.Batch{}
		for _, e := range ix.entries {
			batch.Queue(
				"INSERT INTO rag_chunks (location, position, text, embedding) VALUES ($1, $2, $3, $4)",
				location, e.Position, e.Text, pgvector.NewVector(e.Vector),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}

	logger.InfoContext(ctx, "index saved", "location", location, "model", info.Model, "count", info.Count)
	return nil
}

// Load returns a searcher for the index stored under location.
func (s *PgvectorStore) Load(ctx context.Context, location string) (Searcher, error) {
	var info Info
	err := s.pool.QueryRow(ctx,
		"SELECT model, dimension, chunk_count FROM rag_indexes WHERE location = $1",
		location,
	).Scan(&info.Model, &info.Dimension, &info.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no index at %s: %w", location, apperrors.ErrIndexNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index row: %w", err)
	}

	return &pgvectorSearcher{pool: s.pool, location: location, info: info}, nil
}

type pgvectorSearcher struct {
	pool     *pgxpool.Pool
	location string
	info     Info
}

func (p *pgvectorSearcher) Info() Info {
	return p.info
}

func (p *pgvectorSearcher) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, &apperrors.ValidationError{Field: "k", Message: "must be greater than 0"}
	}
	if p.info.Count == 0 {
		return []Result{}, nil
	}
	if len(query) != p.info.Dimension {
		return nil, apperrors.Mismatch("query has size %d, index has %d", len(query), p.info.Dimension)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT text, position, 1 - (embedding <=> $2) AS score
		FROM rag_chunks
		WHERE location = $1
		ORDER BY embedding <=> $2, position
		LIMIT $3`,
		p.location, pgvector.NewVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0, k)
	for rows.Next() {
		var r Result
		var score float64
		if err := rows.Scan(&r.Text, &r.Position, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		r.Score = float32(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return results, nil
}
