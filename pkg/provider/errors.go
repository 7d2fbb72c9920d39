package provider

import "fmt"

// AuthError indicates missing or invalid credentials. Fatal: surfaced
// immediately from the first Provider call, never retried.
type AuthError struct {
	Vendor string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Vendor, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError covers rate limits, 5xx responses, and network errors.
// Retriable with exponential backoff up to the configured attempt budget.
type TransientError struct {
	Vendor string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient error: %v", e.Vendor, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports that this error kind is always safe to retry.
func (e *TransientError) IsRetryable() bool { return true }

// BadRequestError covers malformed requests or unsupported input (e.g. an
// image the vendor rejects). Fatal to the current call; the agent marks
// the task failed and continues with remaining tasks.
type BadRequestError struct {
	Vendor string
	Err    error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("%s: bad request: %v", e.Vendor, e.Err)
}

func (e *BadRequestError) Unwrap() error { return e.Err }

// TimeoutError indicates a Provider call exceeded its per-request deadline.
type TimeoutError struct {
	Vendor string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out: %v", e.Vendor, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
