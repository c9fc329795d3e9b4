package ports

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique key is already taken.
	ErrConflict = errors.New("conflict")
	// ErrQuotaExhausted indicates the ledger refused the increment.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrTicketUnavailable indicates the upload ticket is missing, reaped or already consumed.
	ErrTicketUnavailable = errors.New("upload ticket unavailable")
	// ErrBlobNotFound indicates no object is stored under the key.
	ErrBlobNotFound = errors.New("blob not found")
)
