package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"

	"barrierfree.app/internal/metrics"
)

var (
	// ErrMissingAPIKey is returned before any call is attempted when no key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrMalformedResponse marks an HTML error page or a body in the wrong format.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrFeedCoolingDown is returned while a feed sits in its backoff window.
	ErrFeedCoolingDown = errors.New("feed is cooling down after a recent failure")
	ErrUnknownFeed     = errors.New("unknown feed")
)

// StatusError is a non-200 HTTP answer.
type StatusError struct {
	Feed       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed %s returned status %d", e.Feed, e.StatusCode)
}

// ResultError is a result code other than success or "no data" inside an
// otherwise well-formed body, e.g. ERROR-337 for an expired key.
type ResultError struct {
	Feed    string
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feed %s returned result code %s", e.Feed, e.Code)
	}
	return fmt.Sprintf("feed %s returned result code %s: %s", e.Feed, e.Code, e.Message)
}

// PageError wraps the failure of one page window.
type PageError struct {
	Feed  string
	Start int
	End   int
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("feed %s rows %d-%d: %v", e.Feed, e.Start, e.End, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// IsTimeout reports whether err came from a deadline or a client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// FailureKind classifies err for the feed failure counter.
func FailureKind(err error) string {
	var statusErr *StatusError
	var resultErr *ResultError
	switch {
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrUnknownFeed):
		return metrics.FailureConfig
	case errors.Is(err, ErrFeedCoolingDown):
		return metrics.FailureCooldown
	case errors.Is(err, ErrMalformedResponse):
		return metrics.FailureMalformed
	case errors.As(err, &statusErr):
		return metrics.FailureStatus
	case errors.As(err, &resultErr):
		return metrics.FailureResult
	case IsTimeout(err):
		return metrics.FailureTimeout
	default:
		return metrics.FailureTransport
	}
}
