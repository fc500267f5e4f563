package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrorCode classifies every failure the client surfaces to callers.
type ErrorCode uint8

const (
	// ErrCGeneric wraps a transport error with no more specific mapping.
	ErrCGeneric ErrorCode = iota
	// ErrCConnectionRefused - every resolved endpoint refused the connection.
	ErrCConnectionRefused
	// ErrCNotConnected - the peer closed the connection mid-request.
	ErrCNotConnected
	// ErrCTimedOut - the request deadline fired.
	ErrCTimedOut
	// ErrCIOError - tag mismatch or unparseable response payload.
	ErrCIOError
	// ErrCProtocolError - the server answered with an error response.
	ErrCProtocolError
	// ErrCTryAgain - sibling resolution did not converge to one content.
	ErrCTryAgain
	// ErrCAddressNotAvailable - hostname resolution failed.
	ErrCAddressNotAvailable
)

// String returns the string representation of an ErrorCode.
func (c ErrorCode) String() string {
	switch c {
	case ErrCGeneric:
		return "generic"
	case ErrCConnectionRefused:
		return "connection_refused"
	case ErrCNotConnected:
		return "not_connected"
	case ErrCTimedOut:
		return "timed_out"
	case ErrCIOError:
		return "io_error"
	case ErrCProtocolError:
		return "protocol_error"
	case ErrCTryAgain:
		return "resource_unavailable_try_again"
	case ErrCAddressNotAvailable:
		return "address_not_available"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the typed error value returned by the client. It wraps an
// ErrorCode, a message and optionally the underlying cause.
type Error struct {
	Code  ErrorCode
	Msg   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("riak: %s", e.Code)
	}
	return fmt.Sprintf("riak: %s: %s", e.Code, e.Msg)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two Errors by code, so sentinel comparisons like
// errors.Is(err, common.NewError(common.ErrCTimedOut, "")) work without
// comparing messages.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// NewErrorf creates an Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error carrying an underlying cause.
func WrapError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or ErrCGeneric if err is not an
// *Error. A nil err has no code; callers check err first.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCGeneric
}
