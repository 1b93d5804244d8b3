// Package discovery finds airports, stations and parking zones around a
// coordinate by querying public geodata endpoints. Every finder shares one
// retry discipline and absorbs its own failures into a typed fallback value,
// so a discovery outage degrades the guide instead of aborting it.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultMaxAttempts = 3 // initial call + 2 retries

// backoffStep is a var so tests can shorten the waits.
var backoffStep = 1500 * time.Millisecond

// transientStatusError marks an HTTP status worth retrying.
type transientStatusError struct {
	status int
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("discovery: transient upstream status %d", e.status)
}

// transientStatus wraps a 504 or 429 status into a retryable error. Any other
// non-OK status yields a terminal error.
func transientStatus(status int, body string) error {
	if status == http.StatusGatewayTimeout || status == http.StatusTooManyRequests {
		return &transientStatusError{status: status}
	}
	return fmt.Errorf("discovery: upstream error (status %d): %s", status, body)
}

// isTransient reports whether the error belongs to a failure class worth
// retrying: request timeouts, 504 and 429. Everything else is terminal.
func isTransient(err error) bool {
	var tse *transientStatusError
	if errors.As(err, &tse) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// context.DeadlineExceeded wrapped by net/http loses the net.Error shape
	// in some paths; match it directly too.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout exceeded")
}

// WithRetry runs fn with bounded retries (the default budget) and linear
// backoff. See WithRetryAttempts.
func WithRetry[T any](ctx context.Context, name string, fn func() (T, error), fallback T) T {
	return WithRetryAttempts(ctx, name, fn, fallback, defaultMaxAttempts)
}

// WithRetryAttempts runs fn up to maxAttempts times with linear backoff
// (attempt * step) between tries. Only transient failures are retried; any
// other error, or exhaustion of the attempt budget, returns the
// caller-supplied fallback value with no error. Discovery failures are
// non-fatal to the pipeline by design.
func WithRetryAttempts[T any](ctx context.Context, name string, fn func() (T, error), fallback T, maxAttempts int) T {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result
		}
		lastErr = err

		if !isTransient(err) {
			log.Warn().Err(err).Str("query", name).Msg("discovery: terminal query failure, using fallback")
			return fallback
		}
		if attempt == maxAttempts {
			break
		}

		delay := time.Duration(attempt) * backoffStep
		log.Warn().
			Err(err).
			Str("query", name).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("discovery: transient query failure, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Str("query", name).Msg("discovery: canceled during backoff, using fallback")
			return fallback
		}
	}

	log.Warn().Err(lastErr).Str("query", name).Msg("discovery: retries exhausted, using fallback")
	return fallback
}
