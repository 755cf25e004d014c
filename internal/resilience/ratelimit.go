package resilience

import (
	"context"
	"sync"
	"time"
)

// DefaultRateLimitDelay is the minimum spacing between outbound requests.
const DefaultRateLimitDelay = 500 * time.Millisecond

// RateLimiter enforces a minimum spacing between consecutive requests.
// The mutex is held across the wait, so concurrent callers queue up and
// effective throughput approaches one request per delay interval no
// matter how many goroutines share the limiter. Spacing, not a token
// bucket: bursts are never allowed.
type RateLimiter struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

// NewRateLimiter creates a limiter with the given spacing. A non-positive
// delay selects the default.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	if delay <= 0 {
		delay = DefaultRateLimitDelay
	}
	return &RateLimiter{delay: delay}
}

// Wait blocks until the spacing requirement is satisfied, then records
// the new last-request time. Returns early with the context error if the
// context is cancelled while waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wait := r.delay - time.Since(r.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.last = time.Now()
	return nil
}
