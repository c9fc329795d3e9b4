package ports

import (
	"context"
	"time"
)

// Event is a host-created event as seen by the guest pipeline.
type Event struct {
	ID                string
	ShareToken        string
	Name              string
	Date              string
	LogoURL           string
	FilterType        string
	MaxPhotosPerGuest int
	CreatedAt         time.Time
}

// CreateEventInput represents event creation fields.
type CreateEventInput struct {
	ID                string
	ShareToken        string
	Name              string
	Date              string
	LogoURL           string
	FilterType        string
	MaxPhotosPerGuest int
	CreatedAt         time.Time
}

// EventStore resolves events. Creation exists for seeding; host CRUD lives elsewhere.
type EventStore interface {
	GetEventByShareToken(ctx context.Context, shareToken string) (Event, error)
	GetEventByID(ctx context.Context, id string) (Event, error)
	CreateEvent(ctx context.Context, input CreateEventInput) (Event, error)
}
