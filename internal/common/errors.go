// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRateLimit indicates the provider signalled a rate limit.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrTimeout indicates a provider call exceeded its bounded wait.
	ErrTimeout = errors.New("provider call timed out")
	// ErrEmptyResponse indicates the provider text was empty or whitespace.
	ErrEmptyResponse = errors.New("empty provider response")
	// ErrMalformedResponse indicates no parseable JSON object was found.
	ErrMalformedResponse = errors.New("malformed provider response")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ProviderErrorKind classifies terminal provider failures. The kind is set at
// the provider adapter boundary, never inferred from message text downstream.
type ProviderErrorKind string

// Provider failure kinds.
const (
	ProviderRateLimited ProviderErrorKind = "rate_limited"
	ProviderTimeout     ProviderErrorKind = "timeout"
	ProviderUnknown     ProviderErrorKind = "unknown"
)

// ProviderError is the terminal failure surfaced by the extraction client
// after its retry budget is exhausted.
type ProviderError struct {
	Err  error
	Kind ProviderErrorKind
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("provider error (%s)", e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a single raw result during normalization. It names
// the offending field; the record is dropped and the batch continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// NewValidationError creates a per-field validation error.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UserError represents an error whose message is safe to show to end users.
// The wrapped cause stays in diagnostic channels only.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// FormatUserError returns the user-facing message for an error, falling back
// to the full error text when no UserError is in the chain.
func FormatUserError(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}
