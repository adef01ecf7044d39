package llmpipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidRequest indicates caller input violated a limit or was malformed.
	ErrInvalidRequest = errors.New("llmpipeline: invalid request")

	// ErrUpstream indicates the remote API returned a non-success status.
	ErrUpstream = errors.New("llmpipeline: upstream request failed")
)

// ValidationError represents a caller-input failure: too many images,
// image payload too large, or an unparseable image source. It is
// surfaced synchronously to the caller of the top-level entry point as
// a descriptive error result, never as a raw fault.
type ValidationError struct {
	Field  string // The input field that failed validation
	Value  any    // The offending value or the limit that was hit
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest or the parse cause)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s': %s (%v)", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s': %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError represents a non-success status from the remote API.
// It carries the status code and the raw response body.
type UpstreamError struct {
	StatusCode int    // HTTP status code
	Body       string // Raw response body
	Err        error  // Wrapped sentinel (ErrUpstream)
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error stems from invalid caller input.
// These errors are not retryable and require request changes.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) {
		return true
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsUpstreamError checks if an error carries a non-success upstream
// status. StatusCode and Body are available through errors.As.
func IsUpstreamError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUpstream) {
		return true
	}

	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
