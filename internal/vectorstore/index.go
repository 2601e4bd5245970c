package vectorstore

import (
	"context"
	"math"
	"slices"

	"docqa/internal/apperrors"
)

// Entry is one stored chunk with its vector.
type Entry struct {
	Position int
	Text     string
	Vector   []float32
}

// Result is a retrieved chunk with its cosine similarity to the query.
type Result struct {
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
	Position int     `json:"position"`
}

// Info describes an index.
type Info struct {
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

// Index is an in-memory exact cosine similarity index.
// It is immutable after Build and safe for concurrent searches.
type Index struct {
	model     string
	dimension int
	entries   []Entry
	norms     []float64
}

// Build pairs chunks with their embeddings. All embeddings must share one
// dimension and there must be exactly one per chunk.
func Build(model string, chunks []string, embeddings [][]float32) (*Index, error) {
	if len(chunks) != len(embeddings) {
		return nil, apperrors.Mismatch("%d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	entries := make([]Entry, len(chunks))
	for i := range chunks {
		entries[i] = Entry{Position: i, Text: chunks[i], Vector: embeddings[i]}
	}
	return newIndex(model, entries)
}

func newIndex(model string, entries []Entry) (*Index, error) {
	ix := &Index{
		model:   model,
		entries: entries,
		norms:   make([]float64, len(entries)),
	}
	for i, e := range entries {
		if i == 0 {
			ix.dimension = len(e.Vector)
		}
		if len(e.Vector) == 0 {
			return nil, apperrors.Mismatch("embedding %d is empty", i)
		}
		if len(e.Vector) != ix.dimension {
			return nil, apperrors.Mismatch("embedding %d has size %d, expected %d", i, len(e.Vector), ix.dimension)
		}
		ix.norms[i] = norm(e.Vector)
	}
	return ix, nil
}

// Info returns the model, dimension and entry count.
func (ix *Index) Info() Info {
	return Info{Model: ix.model, Dimension: ix.dimension, Count: len(ix.entries)}
}

// Entries returns the stored entries in insertion order.
func (ix *Index) Entries() []Entry {
	return ix.entries
}

// Search returns up to k entries by descending cosine similarity.
// Equal scores keep insertion order.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, &apperrors.ValidationError{Field: "k", Message: "must be greater than 0"}
	}
	if len(ix.entries) == 0 {
		return []Result{}, nil
	}
	if len(query) != ix.dimension {
		return nil, apperrors.Mismatch("query has size %d, index has %d", len(query), ix.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qn := norm(query)
	results := make([]Result, len(ix.entries))
	for i, e := range ix.entries {
		results[i] = Result{
			Text:     e.Text,
			Score:    cosine(query, e.Vector, qn, ix.norms[i]),
			Position: e.Position,
		}
	}

	sortResults(results)

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// sortResults orders by descending score, then by insertion position.
func sortResults(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Position - b.Position
		}
	})
}

// Texts returns the chunk texts of results in order.
func Texts(results []Result) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine treats a zero vector as dissimilar to everything.
func cosine(a, b []float32, na, nb float64) float32 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (na * nb))
}
