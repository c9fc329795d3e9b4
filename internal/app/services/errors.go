package services

import "errors"

var (
	// ErrEventNotFound indicates an unknown share token or event id.
	ErrEventNotFound = errors.New("event not found")
	// ErrQuotaExceeded indicates the device reached its photo allotment.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrObjectNotFound indicates nothing confirmable was written under the object key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrTicketConsumed indicates the ticket was already used by a different confirmation.
	ErrTicketConsumed = errors.New("upload ticket already consumed")
	// ErrInvalidInput indicates a malformed command.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies pipeline failures for transport-specific mapping.
type ErrorKind string

const (
	// ErrorUnknown is used when error is nil or not classified.
	ErrorUnknown ErrorKind = "unknown"
	// ErrorEventNotFound indicates a bad or expired share token.
	ErrorEventNotFound ErrorKind = "event_not_found"
	// ErrorQuotaExceeded indicates the quota key is exhausted.
	ErrorQuotaExceeded ErrorKind = "quota_exceeded"
	// ErrorObjectNotFound indicates a missing, expired or foreign object key.
	ErrorObjectNotFound ErrorKind = "object_not_found"
	// ErrorTicketConsumed indicates a second confirmation of one ticket.
	ErrorTicketConsumed ErrorKind = "ticket_consumed"
	// ErrorInvalidInput indicates validation failure.
	ErrorInvalidInput ErrorKind = "invalid_input"
)

// ClassifyError classifies a returned pipeline error.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorUnknown
	case errors.Is(err, ErrEventNotFound):
		return ErrorEventNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return ErrorQuotaExceeded
	case errors.Is(err, ErrObjectNotFound):
		return ErrorObjectNotFound
	case errors.Is(err, ErrTicketConsumed):
		return ErrorTicketConsumed
	case errors.Is(err, ErrInvalidInput):
		return ErrorInvalidInput
	default:
		return ErrorUnknown
	}
}

func invalidInput(reason string) error {
	return &inputError{reason: reason}
}

type inputError struct {
	reason string
}

func (e *inputError) Error() string {
	return "invalid input: " + e.reason
}

func (e *inputError) Unwrap() error {
	return ErrInvalidInput
}
