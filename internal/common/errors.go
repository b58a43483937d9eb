// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Provider errors.
	ErrProvider        = errors.New("provider request failed")
	ErrProviderTimeout = errors.New("provider request timed out")

	// Parse errors.
	ErrInvalidScore = errors.New("invalid score token")

	// Analytics errors.
	ErrConnection = errors.New("analytics store unavailable")

	// Auth errors.
	ErrAuthDenied = errors.New("access denied")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
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
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
