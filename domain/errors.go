package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for callers
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindNoRewardAvailable ErrorKind = "no_reward_available"
	KindDataIntegrity     ErrorKind = "data_integrity_error"
	KindStorage           ErrorKind = "storage_error"
)

// Sentinels for errors.Is matching against an EngineError's kind
var (
	ErrValidation        = errors.New(string(KindValidation))
	ErrNoRewardAvailable = errors.New(string(KindNoRewardAvailable))
	ErrDataIntegrity     = errors.New(string(KindDataIntegrity))
	ErrStorage           = errors.New(string(KindStorage))
)

// GenericFailureMessage is shown to users for integrity and storage failures
const GenericFailureMessage = "Something went wrong. Please try again later."

// EngineError is a structured error with user-facing and internal messages
type EngineError struct {
	Kind        ErrorKind
	UserMessage string // Message safe to show to the user
	LogMessage  string // Internal message for operator logs
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNoRewardAvailable:
		return e.Kind == KindNoRewardAvailable
	case ErrDataIntegrity:
		return e.Kind == KindDataIntegrity
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}

// IsUserFacing reports whether the message can be shown verbatim
func (e *EngineError) IsUserFacing() bool {
	return e.Kind == KindValidation || e.Kind == KindNoRewardAvailable
}

// NewValidationError creates an error for bad or missing input
func NewValidationError(message string) *EngineError {
	return &EngineError{
		Kind:        KindValidation,
		UserMessage: message,
		LogMessage:  message,
	}
}

// NewValidationErrorf creates a validation error with a formatted message
func NewValidationErrorf(format string, args ...interface{}) *EngineError {
	return NewValidationError(fmt.Sprintf(format, args...))
}

// NewNoRewardAvailableError creates an error for a claim with nothing to claim
func NewNoRewardAvailableError(userID int64) *EngineError {
	return &EngineError{
		Kind:        KindNoRewardAvailable,
		UserMessage: "No reward is available to claim.",
		LogMessage:  fmt.Sprintf("user %d has no accrued reward", userID),
	}
}

// NewDataIntegrityError creates an error for state that must never occur
func NewDataIntegrityError(err error, logMessage string) *EngineError {
	return &EngineError{
		Kind:        KindDataIntegrity,
		UserMessage: GenericFailureMessage,
		LogMessage:  logMessage,
		Err:         err,
	}
}

// NewStorageError creates an error for transaction or connection failures
func NewStorageError(err error, logMessage string) *EngineError {
	return &EngineError{
		Kind:        KindStorage,
		UserMessage: GenericFailureMessage,
		LogMessage:  logMessage,
		Err:         err,
	}
}

// AsEngineError classifies any error; unknown errors are treated as storage failures
func AsEngineError(err error) *EngineError {
	if err == nil {
		return nil
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr
	}
	return NewStorageError(err, "unclassified engine failure")
}

// UserMessage returns the message a caller may display for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return AsEngineError(err).UserMessage
}
