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

// GetLedgerEntry returns the quota key's counter; a key with no confirmations reads as zero.
func (s *Store) GetLedgerEntry(ctx context.Context, eventID, deviceID string) (ports.LedgerEntry, error) {
	row, err := s.db.GetLedgerEntry(ctx, queries.GetLedgerEntryParams{EventID: eventID, DeviceID: deviceID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.LedgerEntry{EventID: eventID, DeviceID: deviceID}, nil
		}
		return ports.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	return ports.LedgerEntry{
		EventID:        row.EventID,
		DeviceID:       row.DeviceID,
		ConfirmedCount: int(row.ConfirmedCount),
		UpdatedAt:      fromMillis(row.UpdatedAt),
	}, nil
}

func (s *Store) FindPhotoByIdempotencyKey(ctx context.Context, eventID, deviceID, idempotencyKey string) (ports.PhotoRecord, error) {
	row, err := s.db.GetPhotoByIdempotencyKey(ctx, queries.GetPhotoByIdempotencyKeyParams{
		EventID:        eventID,
		DeviceID:       deviceID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.PhotoRecord{}, ports.ErrNotFound
		}
		return ports.PhotoRecord{}, fmt.Errorf("get photo by idempotency key: %w", err)
	}
	return mapPhoto(row), nil
}

// RecordConfirmation applies one confirmation in a single transaction:
// replay lookup, ticket consumption, bounded ledger increment, photo insert.
func (s *Store) RecordConfirmation(ctx context.Context, input ports.RecordConfirmationInput) (ports.ConfirmationOutcome, error) {
	var outcome ports.ConfirmationOutcome
	err := s.db.WithTx(ctx, func(q *queries.Queries) error {
		replay, found, err := lookupReplay(ctx, q, input)
		if err != nil {
			return err
		}
		if found {
			outcome = ports.ConfirmationOutcome{Photo: replay, Replayed: true}
			return nil
		}

		now := toMillis(input.ConfirmedAt)
		consumed, err := q.ConsumeUploadTicket(ctx, queries.ConsumeUploadTicketParams{
			ConsumedAt: sql.NullInt64{Int64: now, Valid: true},
			ObjectKey:  input.ObjectKey,
		})
		if err != nil {
			return fmt.Errorf("consume upload ticket: %w", err)
		}
		if consumed == 0 {
			// A concurrent confirm with the same key may have committed while we waited on the ticket row.
			replay, found, err := lookupReplay(ctx, q, input)
			if err != nil {
				return err
			}
			if found {
				outcome = ports.ConfirmationOutcome{Photo: replay, Replayed: true}
				return nil
			}
			return ports.ErrTicketUnavailable
		}

		if err := q.EnsureLedgerEntry(ctx, queries.EnsureLedgerEntryParams{
			EventID:   input.EventID,
			DeviceID:  input.DeviceID,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("ensure ledger entry: %w", err)
		}

		incremented, err := q.IncrementLedgerIfBelow(ctx, queries.IncrementLedgerIfBelowParams{
			UpdatedAt:      now,
			EventID:        input.EventID,
			DeviceID:       input.DeviceID,
			ConfirmedCount: int64(input.MaxPhotos),
		})
		if err != nil {
			return fmt.Errorf("increment ledger: %w", err)
		}
		if incremented == 0 {
			return ports.ErrQuotaExhausted
		}

		photo, err := q.CreatePhoto(ctx, queries.CreatePhotoParams{
			ID:             input.PhotoID,
			EventID:        input.EventID,
			DeviceID:       input.DeviceID,
			ObjectKey:      input.ObjectKey,
			IdempotencyKey: input.IdempotencyKey,
			Filename:       input.Filename,
			Note:           input.Note,
			ContentType:    input.ContentType,
			UploadedAt:     now,
		})
		if err != nil {
			return err
		}
		outcome = ports.ConfirmationOutcome{Photo: mapPhoto(photo)}
		return nil
	})
	if err == nil {
		return outcome, nil
	}
	if db.IsUniqueViolation(err) {
		replay, lookupErr := s.FindPhotoByIdempotencyKey(ctx, input.EventID, input.DeviceID, input.IdempotencyKey)
		if lookupErr == nil {
			return ports.ConfirmationOutcome{Photo: replay, Replayed: true}, nil
		}
		return ports.ConfirmationOutcome{}, ports.ErrTicketUnavailable
	}
	if errors.Is(err, ports.ErrQuotaExhausted) || errors.Is(err, ports.ErrTicketUnavailable) {
		return ports.ConfirmationOutcome{}, err
	}
	return ports.ConfirmationOutcome{}, fmt.Errorf("record confirmation: %w", err)
}

func lookupReplay(ctx context.Context, q *queries.Queries, input ports.RecordConfirmationInput) (ports.PhotoRecord, bool, error) {
	row, err := q.GetPhotoByIdempotencyKey(ctx, queries.GetPhotoByIdempotencyKeyParams{
		EventID:        input.EventID,
		DeviceID:       input.DeviceID,
		IdempotencyKey: input.IdempotencyKey,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.PhotoRecord{}, false, nil
		}
		return ports.PhotoRecord{}, false, fmt.Errorf("lookup replay: %w", err)
	}
	return mapPhoto(row), true, nil
}
