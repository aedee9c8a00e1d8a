package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTimeout is returned (wrapped) when an attempt gets no response before
// its deadline.
var ErrTimeout = errors.New("request timeout - please check your internet connection")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status: %d", e.StatusCode)
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// FallbackError is returned when both the primary and the fallback attempt
// failed. It unwraps to both causes.
type FallbackError struct {
	Primary  error
	Fallback error
}

func (e *FallbackError) Error() string {
	var se *StatusError
	if errors.As(e.Fallback, &se) {
		return fmt.Sprintf("primary request failed (%v); fallback request failed with status: %d", e.Primary, se.StatusCode)
	}
	return fmt.Sprintf("primary request failed (%v); fallback request failed: %v", e.Primary, e.Fallback)
}

func (e *FallbackError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// FallbackStatus returns the fallback's HTTP status, or 0 when the fallback
// never got a response.
func (e *FallbackError) FallbackStatus() int {
	var se *StatusError
	if errors.As(e.Fallback, &se) {
		return se.StatusCode
	}
	return 0
}
