package finops

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyResponse is returned when a model answers with no content where
// content was required.
var ErrEmptyResponse = errors.New("empty model response")

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient covers rate limits and overloaded or failing upstreams.
	ErrorTransient ErrorCategory = "transient"
	// ErrorPermanent covers bad credentials and anything unrecognized.
	ErrorPermanent ErrorCategory = "permanent"
	// ErrorUserInput means the request itself must be corrected.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is implemented by provider failures that know whether a
// retry can help.
type CategorizedError interface {
	error
	Category() ErrorCategory
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is the categorized failure the provider adapters return.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewStatusError builds a categorized error for an HTTP status code. A
// Retry-After hint always makes the error transient.
func NewStatusError(msg string, code int, retryAfter time.Duration, cause error) *Error {
	cat := categorize(code)
	if retryAfter > 0 {
		cat = ErrorTransient
	}
	return &Error{Msg: msg, Cat: cat, Code: code, RetryDelay: retryAfter, Cause: cause}
}

func categorize(code int) ErrorCategory {
	switch {
	case code == 429, code >= 500 && code < 600:
		return ErrorTransient
	case code == 400, code == 404, code == 422:
		return ErrorUserInput
	default:
		return ErrorPermanent
	}
}

// CategoryOf returns the category of the first categorized error in err's
// chain, or "" when there is none.
func CategoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category()
	}
	return ""
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// UnmarshalError reports model output that could not be decoded into the
// requested Go type.
type UnmarshalError struct {
	Context    string
	Content    string
	TargetType string
	Err        error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("%s: failed to unmarshal response into %s: %v", e.Context, e.TargetType, e.Err)
}

func (e *UnmarshalError) Unwrap() error { return e.Err }
