package types

import "fmt"

// ErrorCode represents a unified error code across the bridge.
type ErrorCode string

// Bridge error codes. All of them are recovered locally and surfaced to the
// caller as a failure outcome; none are fatal to the bridge process.
const (
	ErrDecode             ErrorCode = "DECODE_ERROR"
	ErrUnknownTool        ErrorCode = "UNKNOWN_TOOL"
	ErrNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	ErrBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"
	ErrBackendMalformed   ErrorCode = "BACKEND_MALFORMED_RESPONSE"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
)

// Error represents a structured error with code, message, and metadata.
// Message is the exact human-readable text emitted on the output stream.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Tool      string    `json:"tool,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithTool sets the tool name the error originated from.
func (e *Error) WithTool(tool string) *Error {
	e.Tool = tool
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}
