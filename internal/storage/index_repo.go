package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// IndexStore defines the interface for index file operations.
type IndexStore interface {
	// WriteMeta stores the index description, replacing any previous one.
	WriteMeta(ctx context.Context, meta *MetaRecord) error
	// ReadMeta returns the index description. Returns ErrNotFound if none was written.
	ReadMeta(ctx context.Context) (*MetaRecord, error)
	// InsertChunks inserts all chunks in one transaction.
	InsertChunks(ctx context.Context, chunks []ChunkRecord) error
	// ListChunks returns all chunks ordered by position.
	ListChunks(ctx context.Context) ([]ChunkRecord, error)
}

// IndexRepo provides methods for index file operations.
// It implements the IndexStore interface.
type IndexRepo struct {
	db *sql.DB
}

// NewIndexRepo creates a new IndexRepo.
func NewIndexRepo(db *sql.DB) *IndexRepo {
	return &IndexRepo{db: db}
}

// WriteMeta stores the index description, replacing any previous one.
func (r *IndexRepo) WriteMeta(ctx context.Context, meta *MetaRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO index_meta (id, model, dimension, chunk_count) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET model = excluded.model, dimension = excluded.dimension,
			chunk_count = excluded.chunk_count, created_at = CURRENT_TIMESTAMP`,
		meta.Model, meta.Dimension, meta.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to write index meta: %w", err)
	}
	return nil
}

// ReadMeta returns the index description. Returns ErrNotFound if none was written.
func (r *IndexRepo) ReadMeta(ctx context.Context) (*MetaRecord, error) {
	var meta MetaRecord
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT model, dimension, chunk_count, created_at FROM index_meta WHERE id = 1",
	).Scan(&meta.Model, &meta.Dimension, &meta.ChunkCount, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index meta: %w", err)
	}

	// Parse created_at DATETIME string
	meta.CreatedAt, err = time.Parse("2006-01-02 15:04:05", createdAtStr)
	if err != nil {
		// Try alternative format (SQLite might use different format)
		meta.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
	}

	return &meta, nil
}

// InsertChunks inserts all chunks in one transaction.
func (r *IndexRepo) InsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks (position, text, embedding) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Position, c.Text, EncodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListChunks returns all chunks ordered by position.
// Returns an empty slice if no chunks exist (not an error).
func (r *IndexRepo) ListChunks(ctx context.Context) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT position, text, embedding FROM chunks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []ChunkRecord{}
	for rows.Next() {
		var c ChunkRecord
		var blob []byte
		if err := rows.Scan(&c.Position, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk %d: %w", c.Position, err)
		}
		c.Embedding = vec
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}

// EncodeVector packs v as little-endian float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
