package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every error caused by the caller's input or
	// settings rather than by a collaborator.
	ErrInvalidInput = errors.New("invalid input")

	// ErrKeyRequired matches the missing-key error for any provider.
	ErrKeyRequired = errors.New("key required")

	// ErrNothingToPlay is returned when the text is empty after trimming.
	ErrNothingToPlay = &TTSError{Code: ErrorCodeInvalidInput, Message: "nothing to play"}

	// ErrClosed is returned by every operation after Close.
	ErrClosed = &TTSError{Code: ErrorCodeClosed, Message: "controller closed"}
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorCodeKeyRequired  ErrorCode = "KEY_REQUIRED"
	ErrorCodeClosed       ErrorCode = "CLOSED"
	ErrorCodeCacheCorrupt ErrorCode = "CACHE_CORRUPTED"
)

// TTSError is an error raised by the controller itself. Its message is meant
// to be shown to the user as is.
type TTSError struct {
	Code     ErrorCode
	Message  string
	Provider string
	Cause    error
}

func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TTSError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the category sentinels.
func (e *TTSError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Code == ErrorCodeInvalidInput || e.Code == ErrorCodeKeyRequired
	case ErrKeyRequired:
		return e.Code == ErrorCodeKeyRequired
	}
	return false
}

// NewTTSError creates a TTSError.
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{Code: code, Message: message, Cause: cause}
}

func keyRequired(provider string) *TTSError {
	return &TTSError{
		Code:     ErrorCodeKeyRequired,
		Message:  fmt.Sprintf("key required for provider %s", provider),
		Provider: provider,
	}
}

// IsInvalidInput reports whether err was caused by the request itself.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
