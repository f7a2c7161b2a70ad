package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures so callers can decide whether to abort,
// continue with the next unit of work, or treat the outcome as benign.
type ErrorType string

const (
	ErrorTypeConnectivity  ErrorType = "connectivity"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeDuplicate     ErrorType = "duplicate"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a classified error with optional HTTP status code.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a classified error.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// WithCode creates a classified error carrying an HTTP status code.
func WithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConnectivity reports whether err is a remote connectivity failure.
func IsConnectivity(err error) bool { return isType(err, ErrorTypeConnectivity) }

// IsConfiguration reports whether err is invalid caller input.
func IsConfiguration(err error) bool { return isType(err, ErrorTypeConfiguration) }

// IsDuplicate reports whether err is a unique-key conflict.
func IsDuplicate(err error) bool { return isType(err, ErrorTypeDuplicate) }

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsRetryable reports whether an error type is worth retrying at the
// transport layer. Connectivity and server errors are transient; the rest
// will not change on retry.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeConnectivity, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// retryable failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 429:
		return true
	default:
		return statusCode >= 500
	}
}
