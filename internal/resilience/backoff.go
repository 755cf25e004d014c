package resilience

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxBackoffDelay caps every retry delay, jitter included.
const MaxBackoffDelay = 30 * time.Second

// Backoff produces exponential retry delays: base * 2^attempt with up to
// 25% jitter, never exceeding MaxBackoffDelay. One instance covers the
// retry loop of a single request; it is not safe for concurrent use.
type Backoff struct {
	exp *backoff.ExponentialBackOff
}

// NewBackoff creates a backoff sequence starting at the given base delay.
func NewBackoff(base time.Duration) *Backoff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = base
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.25
	exp.MaxInterval = MaxBackoffDelay
	exp.MaxElapsedTime = 0 // the retry count is bounded by the caller
	exp.Reset()
	return &Backoff{exp: exp}
}

// Next returns the delay before the next retry attempt.
func (b *Backoff) Next() time.Duration {
	d := b.exp.NextBackOff()
	if d > MaxBackoffDelay {
		d = MaxBackoffDelay
	}
	return d
}
