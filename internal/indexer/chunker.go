package indexer

import (
	"fmt"
	"iter"
	"slices"

	"docqa/internal/apperrors"
)

// ChunkerVersion identifies the chunking behavior for index version hashes.
// Update this when chunking logic changes.
const ChunkerVersion = "fixed-window-v1"

// Chunker splits text into fixed-size windows of runes.
// Consecutive windows share overlap runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker producing windows of size runes that overlap by overlap runes.
// It returns an InvalidConfig error unless size > 0 and 0 <= overlap < size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, &apperrors.ValidationError{
			Field:   "chunk_size",
			Message: "must be greater than 0",
		}
	}
	if overlap < 0 || overlap >= size {
		return nil, &apperrors.ValidationError{
			Field:   "chunk_overlap",
			Message: fmt.Sprintf("must be between 0 and %d", size-1),
		}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of runes shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks returns a lazy sequence over the windows of text.
// Every range over the sequence starts from the beginning of text.
// The final window may be shorter than the size; empty text yields nothing.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}
		runes := []rune(text)
		step := c.size - c.overlap
		for start := 0; start < len(runes); start += step {
			end := min(start+c.size, len(runes))
			if !yield(string(runes[start:end])) {
				return
			}
			if end == len(runes) {
				return
			}
		}
	}
}

// Split collects all windows of text into a slice.
func (c *Chunker) Split(text string) []string {
	return slices.Collect(c.Chunks(text))
}

// Chunk validates size and overlap and returns the window sequence of text.
func Chunk(text string, size, overlap int) (iter.Seq[string], error) {
	c, err := NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunks(text), nil
}
