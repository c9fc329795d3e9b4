package ports

import (
	"context"
	"time"
)

// UploadTicket authorizes one object write. ConsumedAt is zero until confirmation.
type UploadTicket struct {
	ObjectKey   string
	EventID     string
	DeviceID    string
	Filename    string
	ContentType string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	ConsumedAt  time.Time
}

// Consumed reports whether a confirmation already used the ticket.
func (t UploadTicket) Consumed() bool {
	return !t.ConsumedAt.IsZero()
}

// TicketStore keeps the advisory in-flight set of issued tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket UploadTicket) error
	GetTicket(ctx context.Context, objectKey string) (UploadTicket, error)
	CountInFlight(ctx context.Context, eventID, deviceID string, now time.Time) (int, error)
	ListExpiredTickets(ctx context.Context, before time.Time, limit int) ([]UploadTicket, error)
	DeleteTicket(ctx context.Context, objectKey string) (bool, error)
	PruneConsumedTickets(ctx context.Context, before time.Time) (int, error)
}
