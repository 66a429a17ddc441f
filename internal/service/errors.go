package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAnalyzerUnavailable means a raw query arrived while the analyzer is
	// disabled.
	ErrAnalyzerUnavailable = errors.New("query analyzer not configured")
	// ErrExternalService wraps query analyzer failures.
	ErrExternalService = errors.New("external service error")
)

// ValidationError rejects one field of a search request.
type ValidationError struct {
	Field   string
	Message string
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
