package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/db"
	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

func (s *Store) GetEventByShareToken(ctx context.Context, shareToken string) (ports.Event, error) {
	row, err := s.db.GetEventByShareToken(ctx, shareToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Event{}, ports.ErrNotFound
		}
		return ports.Event{}, fmt.Errorf("get event by share token: %w", err)
	}
	return mapEvent(row), nil
}

func (s *Store) GetEventByID(ctx context.Context, id string) (ports.Event, error) {
	row, err := s.db.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Event{}, ports.ErrNotFound
		}
		return ports.Event{}, fmt.Errorf("get event by id: %w", err)
	}
	return mapEvent(row), nil
}

func (s *Store) CreateEvent(ctx context.Context, input ports.CreateEventInput) (ports.Event, error) {
	row, err := s.db.CreateEvent(ctx, queries.CreateEventParams{
		ID:                input.ID,
		ShareToken:        input.ShareToken,
		Name:              input.Name,
		EventDate:         input.Date,
		LogoUrl:           toNullString(input.LogoURL),
		FilterType:        input.FilterType,
		MaxPhotosPerGuest: int64(input.MaxPhotosPerGuest),
		CreatedAt:         toMillis(input.CreatedAt),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ports.Event{}, fmt.Errorf("create event: %w", ports.ErrConflict)
		}
		return ports.Event{}, fmt.Errorf("create event: %w", err)
	}
	return mapEvent(row), nil
}
