// Package domain defines the core domain models for the Emplo client.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a client-side error with a structured error code.
// Codes have the form EM-<AREA>-<NNNN>; the numeric part mirrors the closest
// HTTP status so that log lines stay greppable across client and service.
type DomainError struct {
	Code    string // Error code (e.g., "EM-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Identity service errors (IDN)
// ============================================================================

var (
	// ErrTransportFailure indicates no response was received from the identity service.
	ErrTransportFailure = NewDomainError("EM-IDN-5030", "identity service unreachable")

	// ErrRejectedByServer indicates the identity service answered with a non-success status.
	ErrRejectedByServer = NewDomainError("EM-IDN-4000", "request rejected by identity service")

	// ErrMalformedResponse indicates a success response whose body could not be decoded.
	ErrMalformedResponse = NewDomainError("EM-IDN-5020", "malformed identity service response")
)

// ============================================================================
// Request errors (REQ)
// ============================================================================

var (
	// ErrValidationFailure indicates client-side input failed validation before any call.
	ErrValidationFailure = NewDomainError("EM-REQ-4001", "validation failed")
)

// ============================================================================
// Authentication errors (AUTH)
// ============================================================================

var (
	// ErrUnauthenticated indicates a call that needs a session was made without a token.
	ErrUnauthenticated = NewDomainError("EM-AUTH-4010", "no user logged in")
)

// ============================================================================
// System errors (SYS)
// ============================================================================

var (
	// ErrCredentialStore indicates the local credential store failed.
	ErrCredentialStore = NewDomainError("EM-SYS-5001", "credential store error")
)
