package identity

import (
	"errors"
	"fmt"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/telemetry/metric"
)

// RemoteError describes a failed call to the identity service.
type RemoteError struct {
	// Op is the client operation, e.g. "authenticate".
	Op string
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	// Message is safe to show to the user.
	Message string
	// Err is the underlying cause, if any.
	Err error

	kind *domain.DomainError
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
}

// Unwrap exposes both the taxonomy sentinel and the cause.
func (e *RemoteError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func transportError(op string, cause error) *RemoteError {
	return &RemoteError{
		Op:      op,
		Message: domain.ErrTransportFailure.Message,
		Err:     cause,
		kind:    domain.ErrTransportFailure,
	}
}

func rejectedError(op string, status int, message string) *RemoteError {
	return &RemoteError{
		Op:      op,
		Status:  status,
		Message: message,
		kind:    domain.ErrRejectedByServer,
	}
}

func malformedError(op string, status int, cause error) *RemoteError {
	return &RemoteError{
		Op:      op,
		Status:  status,
		Message: "unexpected response from identity service",
		Err:     cause,
		kind:    domain.ErrMalformedResponse,
	}
}

// outcome maps an error to its metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metric.OutcomeOK
	case errors.Is(err, domain.ErrTransportFailure):
		return metric.OutcomeTransport
	case errors.Is(err, domain.ErrMalformedResponse):
		return metric.OutcomeMalformed
	default:
		return metric.OutcomeRejected
	}
}
