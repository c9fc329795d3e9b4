package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

const (
	// DefaultFilterType is baked into photos when the host picked none.
	DefaultFilterType = "warm"
	// DefaultMaxPhotosPerGuest is the allotment of a new event.
	DefaultMaxPhotosPerGuest = 5

	createEventAttempts = 20
)

// CreateEventCommand holds host-supplied event fields.
type CreateEventCommand struct {
	Name              string
	Date              string
	LogoURL           string
	FilterType        string
	MaxPhotosPerGuest int
}

// EventAdminService creates events for development seeding.
type EventAdminService struct {
	events ports.EventStore
	now    func() time.Time
}

// NewEventAdminService constructs the event seeding service.
func NewEventAdminService(events ports.EventStore) *EventAdminService {
	return &EventAdminService{events: events, now: time.Now}
}

// CreateEvent stores an event under a fresh id and share token.
func (s *EventAdminService) CreateEvent(ctx context.Context, cmd CreateEventCommand) (ports.Event, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return ports.Event{}, invalidInput("event name is required")
	}
	if cmd.MaxPhotosPerGuest == 0 {
		cmd.MaxPhotosPerGuest = DefaultMaxPhotosPerGuest
	}
	if cmd.MaxPhotosPerGuest < 0 {
		return ports.Event{}, invalidInput("max_photos_per_guest must be positive")
	}
	date := strings.TrimSpace(cmd.Date)
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return ports.Event{}, invalidInput("event date must be YYYY-MM-DD")
		}
	}
	filterType := strings.ToLower(strings.TrimSpace(cmd.FilterType))
	if filterType == "" {
		filterType = DefaultFilterType
	}

	for i := 0; i < createEventAttempts; i++ {
		event, err := s.events.CreateEvent(ctx, ports.CreateEventInput{
			ID:                NewEventID(),
			ShareToken:        NewShareToken(),
			Name:              name,
			Date:              date,
			LogoURL:           strings.TrimSpace(cmd.LogoURL),
			FilterType:        filterType,
			MaxPhotosPerGuest: cmd.MaxPhotosPerGuest,
			CreatedAt:         s.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, ports.ErrConflict) {
				continue
			}
			return ports.Event{}, err
		}
		return event, nil
	}
	return ports.Event{}, fmt.Errorf("failed to allocate unique share token after %d attempts", createEventAttempts)
}
