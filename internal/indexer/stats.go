package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
)

// ComputeStats builds chunking statistics for chunks.
// count returns the token count of a chunk.
func ComputeStats(c *Chunker, embeddingModel string, documents int, chunks []string, count func(string) int) Stats {
	stats := Stats{
		Documents:      documents,
		Chunks:         len(chunks),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(c, embeddingModel),
	}

	if len(chunks) > 0 {
		tokenCounts := make([]int, 0, len(chunks))
		for _, chunk := range chunks {
			tokenCounts = append(tokenCounts, max(count(chunk), 1))
		}
		stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	}

	return stats
}

// IndexVersion hashes the chunker version, embedding model and chunking params.
func IndexVersion(c *Chunker, embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|size=%d|overlap=%d", ChunkerVersion, embeddingModel, c.size, c.overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// computeTokenStats summarises per-chunk token counts. Mean is rounded to
// two decimals.
func computeTokenStats(counts []int) ChunkTokenStats {
	if len(counts) == 0 {
		return ChunkTokenStats{}
	}

	ordered := slices.Clone(counts)
	slices.Sort(ordered)

	var total int
	for _, n := range ordered {
		total += n
	}

	return ChunkTokenStats{
		Min:  ordered[0],
		Max:  ordered[len(ordered)-1],
		Mean: math.Round(float64(total)/float64(len(ordered))*100) / 100,
		P95:  rankAt(ordered, 0.95),
	}
}

// rankAt returns the value at rank ceil(n*q) of ordered, clamped to the last element.
func rankAt(ordered []int, q float64) int {
	rank := int(math.Ceil(float64(len(ordered)) * q))
	return ordered[min(rank, len(ordered)-1)]
}
