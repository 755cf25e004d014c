// Package resilience provides the failure-handling primitives shared by
// every outbound request path: a circuit breaker, exponential retry
// backoff, a request-spacing rate limiter, and retryability
// classification.
package resilience

import (
	"fmt"
	"sync"
	"time"

	"vlr-matches/internal/logging"
)

// Circuit breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetWindow      = 60 * time.Second
)

// OpenError is returned by Allow while the circuit is open. It carries the
// remaining cool-down so callers can report when requests will resume.
type OpenError struct {
	Remaining time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open, retry in %.0fs", e.Remaining.Seconds())
}

// Breaker is a consecutive-failure circuit breaker. After threshold
// failures it blocks all requests for the reset window; the first attempt
// after the window proceeds with a fully reset count, so a half-open probe
// is instantaneous and optimistic. A single success closes the circuit
// from any state. Safe for concurrent use.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	resetWindow time.Duration

	failureCount int
	openedAt     time.Time // zero while closed
}

// NewBreaker creates a breaker. Non-positive arguments select the
// defaults.
func NewBreaker(threshold int, resetWindow time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if resetWindow <= 0 {
		resetWindow = DefaultResetWindow
	}
	return &Breaker{threshold: threshold, resetWindow: resetWindow}
}

// Allow reports whether a request may proceed. While the circuit is open
// and inside the reset window it returns an *OpenError without any side
// effects; once the window has elapsed the breaker resets and the request
// proceeds.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openedAt.IsZero() {
		return nil
	}
	elapsed := time.Since(b.openedAt)
	if elapsed < b.resetWindow {
		return &OpenError{Remaining: b.resetWindow - elapsed}
	}

	log := logging.WithComponent("breaker")
	log.Info().Msg("circuit breaker attempting reset")
	b.openedAt = time.Time{}
	b.failureCount = 0
	return nil
}

// RecordSuccess resets the failure count and closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.openedAt = time.Time{}
}

// RecordFailure counts a failed request and trips the circuit when the
// threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	if b.failureCount >= b.threshold && b.openedAt.IsZero() {
		b.openedAt = time.Now()
		log := logging.WithComponent("breaker")
		log.Error().
			Int("failures", b.failureCount).
			Dur("reset_window", b.resetWindow).
			Msg("circuit breaker tripped")
	}
}

// FailureCount returns the current consecutive-failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
