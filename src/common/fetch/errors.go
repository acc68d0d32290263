package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError is returned for upstream responses with status >= 400.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("upstream returned %s", e.Status)
	}
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether another attempt may succeed. 5xx is retried,
// 4xx is terminal.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// FetchError is the terminal error after the retry budget is spent or a
// terminal status is received. Cause is the last attempt's error.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func (e *FetchError) IsTimeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// IsUpstreamStatus reports whether the upstream answered with an error status.
func (e *FetchError) IsUpstreamStatus() bool {
	return e.StatusCode != 0
}
