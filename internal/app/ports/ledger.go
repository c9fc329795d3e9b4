package ports

import (
	"context"
	"time"
)

// LedgerEntry is the confirmed photo count of one quota key.
type LedgerEntry struct {
	EventID        string
	DeviceID       string
	ConfirmedCount int
	UpdatedAt      time.Time
}

// PhotoRecord is a durably confirmed photo.
type PhotoRecord struct {
	ID             string
	EventID        string
	DeviceID       string
	ObjectKey      string
	IdempotencyKey string
	Filename       string
	Note           string
	ContentType    string
	UploadedAt     time.Time
}

// RecordConfirmationInput is one confirmation to apply to the ledger.
type RecordConfirmationInput struct {
	PhotoID        string
	EventID        string
	DeviceID       string
	ObjectKey      string
	IdempotencyKey string
	Filename       string
	Note           string
	ContentType    string
	MaxPhotos      int
	ConfirmedAt    time.Time
}

// ConfirmationOutcome is the ledger result of a confirmation.
// Replayed is set when the idempotency key was already consumed.
type ConfirmationOutcome struct {
	Photo    PhotoRecord
	Replayed bool
}

// QuotaLedger is the authoritative per-(event, device) photo counter.
//
// RecordConfirmation must be atomic per quota key: replay lookup, bounded
// increment, photo insert and ticket consumption commit together or not at all.
// It returns ErrQuotaExhausted when the count already reached MaxPhotos and
// ErrTicketUnavailable when the ticket cannot be consumed.
type QuotaLedger interface {
	GetLedgerEntry(ctx context.Context, eventID, deviceID string) (LedgerEntry, error)
	FindPhotoByIdempotencyKey(ctx context.Context, eventID, deviceID, idempotencyKey string) (PhotoRecord, error)
	RecordConfirmation(ctx context.Context, input RecordConfirmationInput) (ConfirmationOutcome, error)
}
