package llm

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens in text.
// Without an encoding it estimates one token per four runes.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the named tiktoken encoding (e.g. "cl100k_base").
// An empty name returns an estimating counter that needs no encoding files.
// If the encoding cannot be loaded the estimating counter is returned
// together with the error, so callers may log and continue.
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	if encoding == "" {
		return &TokenCounter{}, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &TokenCounter{}, fmt.Errorf("failed to load token encoding %q: %w", encoding, err)
	}
	return &TokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return estimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

func estimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
