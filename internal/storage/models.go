package storage

import "time"

// MetaRecord describes a persisted index: the embedding model identity,
// vector size and number of chunks.
type MetaRecord struct {
	Model      string
	Dimension  int
	ChunkCount int
	CreatedAt  time.Time
}

// ChunkRecord is one chunk with its embedding, ordered by Position.
type ChunkRecord struct {
	Position  int       // Insertion order within the index (starts at 0)
	Text      string    // Chunk text content
	Embedding []float32 // Stored as little-endian float32 bytes
}
