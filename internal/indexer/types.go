package indexer

// Stats describes one chunking run over the ingested text.
type Stats struct {
	// Documents is the number of documents concatenated into the text.
	Documents int `json:"documents"`
	// Chunks is the number of chunks produced.
	Chunks int `json:"chunks"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
	// EmbeddingModel is the model every vector in the index came from.
	EmbeddingModel string `json:"embedding_model"`
	// Dimension is the vector size, 0 for an empty index.
	Dimension int `json:"dimension"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	// Min is the minimum token count across all chunks.
	Min int `json:"min"`
	// Max is the maximum token count across all chunks.
	Max int `json:"max"`
	// Mean is the mean token count across all chunks.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile token count.
	P95 int `json:"p95"`
}
