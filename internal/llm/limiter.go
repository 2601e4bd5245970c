package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound calls to a requests-per-minute budget.
// A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns a limiter allowing rpm requests per minute.
// rpm <= 0 returns nil (unlimited).
func NewLimiter(rpm int) *Limiter {
	if rpm <= 0 {
		return nil
	}
	burst := max(rpm/10, 1)
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)}
}

// Wait blocks until a request is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
