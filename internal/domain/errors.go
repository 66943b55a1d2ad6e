package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Engine specific errors
	ErrNotInitialized     ErrorCode = "NOT_INITIALIZED"
	ErrGenerationFailure  ErrorCode = "GENERATION_FAILURE"
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
)

// ErrBankExhausted signals that a leaf's bank has no unseen question at the
// target tier. It is recovered internally via dynamic generation and never
// surfaces to callers when generation succeeds.
var ErrBankExhausted = errors.New("question bank exhausted")

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

// NewNotInitializedError indicates an operation was invoked before a
// session was started for the (user, topic) pair.
func NewNotInitializedError(message string) *DomainError {
	return NewError(ErrNotInitialized, message, nil)
}

// NewGenerationError indicates the content-generation collaborator was
// unreachable or returned unparsable output. The concept and tier are
// included so the caller can retry the same turn.
func NewGenerationError(conceptName string, tier DifficultyTier, err error) *DomainError {
	return NewError(ErrGenerationFailure,
		fmt.Sprintf("failed to generate %s question for concept %q", tier, conceptName), err)
}

// NewPersistenceError indicates the backing store rejected a read or write.
// In-memory state is not discarded, so the caller may retry.
func NewPersistenceError(message string, err error) *DomainError {
	return NewError(ErrPersistenceFailure, message, err)
}

// ValidationError represents a validation error
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(message string) error {
	return &ValidationError{message: message}
}

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")
