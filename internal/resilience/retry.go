package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// IsRetryableStatus reports whether an HTTP status code is worth
// retrying: server errors and rate limiting only. Any other 4xx is
// permanent and retrying it would just burn the retry budget.
func IsRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// IsRetryableError reports whether a transport-level error is transient.
// Connection and timeout errors are always retryable; context
// cancellation is not, since the caller has given up. Deadline errors stay
// retryable because the per-request timeout surfaces as one.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
