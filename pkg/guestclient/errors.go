package guestclient

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrObjectNotFound = errors.New("object not found")
	ErrTicketConsumed = errors.New("upload ticket already consumed")
	ErrInvalidInput   = errors.New("invalid input")
)

// APIError is a non-retryable rejection returned by the guest API or blob storage.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("guest api: status=%d kind=%s", e.Status, e.Kind)
	}
	return fmt.Sprintf("guest api: status=%d kind=%s: %s", e.Status, e.Kind, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrEventNotFound:
		return e.Kind == "event_not_found"
	case ErrQuotaExceeded:
		return e.Kind == "quota_exceeded"
	case ErrObjectNotFound:
		return e.Kind == "object_not_found"
	case ErrTicketConsumed:
		return e.Kind == "ticket_consumed"
	case ErrInvalidInput:
		return e.Kind == "invalid_input"
	default:
		return false
	}
}

// TransientError marks a failure worth retrying: network errors, 5xx and 429.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err may succeed on a later attempt.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
