package roomchat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Session errors detected before a command is sent.
	ErrorValidation
	ErrorNotAuthenticated
	ErrorNotJoined
	ErrorNoMorePages

	// Inbound anomalies.
	ErrorStaleEvent
	ErrorServer

	// Client-side errors.
	ErrorConnection
	ErrorDisconnected
	ErrorNotConnected
	ErrorInvalidConfig
	ErrorSerialization
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorValidation:
		return "validation"
	case ErrorNotAuthenticated:
		return "not_authenticated"
	case ErrorNotJoined:
		return "not_joined"
	case ErrorNoMorePages:
		return "no_more_pages"
	case ErrorStaleEvent:
		return "stale_event"
	case ErrorServer:
		return "server_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorSerialization:
		return "serialization_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ChatError is a structured error with code and context.
type ChatError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *ChatError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new ChatError with the given code and message.
func NewError(code ErrorCode, message string) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a ChatError.
func WrapError(code ErrorCode, message string, err error) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// CodeOf extracts the ErrorCode from an error, or ErrorUnknown.
func CodeOf(err error) ErrorCode {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrorUnknown
}

// IsValidation reports whether the error is a pre-send validation failure.
func IsValidation(err error) bool {
	return CodeOf(err) == ErrorValidation
}

// IsNotAuthenticated reports whether the error means identity is missing.
// Recoverable by completing username setup.
func IsNotAuthenticated(err error) bool {
	return CodeOf(err) == ErrorNotAuthenticated
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	switch CodeOf(err) {
	case ErrorConnection, ErrorDisconnected, ErrorNotConnected:
		return true
	default:
		return false
	}
}
