package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

func (s *Store) CreateTicket(ctx context.Context, ticket ports.UploadTicket) error {
	if err := s.db.CreateUploadTicket(ctx, queries.CreateUploadTicketParams{
		ObjectKey:   ticket.ObjectKey,
		EventID:     ticket.EventID,
		DeviceID:    ticket.DeviceID,
		Filename:    ticket.Filename,
		ContentType: ticket.ContentType,
		IssuedAt:    toMillis(ticket.IssuedAt),
		ExpiresAt:   toMillis(ticket.ExpiresAt),
	}); err != nil {
		return fmt.Errorf("create upload ticket: %w", err)
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, objectKey string) (ports.UploadTicket, error) {
	row, err := s.db.GetUploadTicket(ctx, objectKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.UploadTicket{}, ports.ErrNotFound
		}
		return ports.UploadTicket{}, fmt.Errorf("get upload ticket: %w", err)
	}
	return mapTicket(row), nil
}

func (s *Store) CountInFlight(ctx context.Context, eventID, deviceID string, now time.Time) (int, error) {
	count, err := s.db.CountInFlightTickets(ctx, queries.CountInFlightTicketsParams{
		EventID:   eventID,
		DeviceID:  deviceID,
		ExpiresAt: toMillis(now),
	})
	if err != nil {
		return 0, fmt.Errorf("count in-flight tickets: %w", err)
	}
	return int(count), nil
}

func (s *Store) ListExpiredTickets(ctx context.Context, before time.Time, limit int) ([]ports.UploadTicket, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.ListExpiredUploadTickets(ctx, queries.ListExpiredUploadTicketsParams{
		ExpiresAt: toMillis(before),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list expired upload tickets: %w", err)
	}
	tickets := make([]ports.UploadTicket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, mapTicket(row))
	}
	return tickets, nil
}

// DeleteTicket removes an unconsumed ticket and reports whether a row went away.
// Consumed tickets are kept until pruned.
func (s *Store) DeleteTicket(ctx context.Context, objectKey string) (bool, error) {
	deleted, err := s.db.DeleteUploadTicket(ctx, objectKey)
	if err != nil {
		return false, fmt.Errorf("delete upload ticket: %w", err)
	}
	return deleted > 0, nil
}

func (s *Store) PruneConsumedTickets(ctx context.Context, before time.Time) (int, error) {
	deleted, err := s.db.DeleteConsumedUploadTickets(ctx, sql.NullInt64{Int64: toMillis(before), Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune consumed tickets: %w", err)
	}
	return int(deleted), nil
}
