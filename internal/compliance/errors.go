package compliance

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy of external sources.
type ErrorCategory string

const (
	CategoryTimeout        ErrorCategory = "timeout"
	CategoryOutage         ErrorCategory = "outage"
	CategoryRateLimited    ErrorCategory = "rate_limited"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryBadData        ErrorCategory = "bad_data"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryInternal       ErrorCategory = "internal"
)

// SourceError wraps a failed source call with its category.
type SourceError struct {
	Category   ErrorCategory
	Source     string
	Message    string
	Underlying error
	// Retryable is true for timeouts, outages and rate limiting. Such errors
	// never clear a completion.
	Retryable bool
}

func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Category, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Underlying
}

func NewSourceError(category ErrorCategory, source, message string, underlying error) *SourceError {
	retryable := category == CategoryTimeout ||
		category == CategoryOutage ||
		category == CategoryRateLimited

	return &SourceError{
		Category:   category,
		Source:     source,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

func IsRetryable(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsNotFound reports an authoritative answer that the record does not exist.
func IsNotFound(err error) bool {
	return CategoryOf(err) == CategoryNotFound
}

// CategoryOf returns the category of a SourceError, or internal for any other
// error.
func CategoryOf(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryInternal
}
