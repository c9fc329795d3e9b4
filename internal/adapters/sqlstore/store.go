package sqlstore

import (
	"database/sql"
	"time"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/db"
	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

// Store implements the guest pipeline ports over the sqlc-backed database.
type Store struct {
	db storeDatabase
}

// NewStore creates a store around a shared database handle.
func NewStore(database *db.Database) *Store {
	return &Store{db: database}
}

var (
	_ ports.EventStore  = (*Store)(nil)
	_ ports.QuotaLedger = (*Store)(nil)
	_ ports.TicketStore = (*Store)(nil)
)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

func nullString(value sql.NullString) string {
	if value.Valid {
		return value.String
	}
	return ""
}

func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func mapEvent(row queries.Event) ports.Event {
	return ports.Event{
		ID:                row.ID,
		ShareToken:        row.ShareToken,
		Name:              row.Name,
		Date:              row.EventDate,
		LogoURL:           nullString(row.LogoUrl),
		FilterType:        row.FilterType,
		MaxPhotosPerGuest: int(row.MaxPhotosPerGuest),
		CreatedAt:         fromMillis(row.CreatedAt),
	}
}

func mapPhoto(row queries.Photo) ports.PhotoRecord {
	return ports.PhotoRecord{
		ID:             row.ID,
		EventID:        row.EventID,
		DeviceID:       row.DeviceID,
		ObjectKey:      row.ObjectKey,
		IdempotencyKey: row.IdempotencyKey,
		Filename:       row.Filename,
		Note:           row.Note,
		ContentType:    row.ContentType,
		UploadedAt:     fromMillis(row.UploadedAt),
	}
}

func mapTicket(row queries.UploadTicket) ports.UploadTicket {
	return ports.UploadTicket{
		ObjectKey:   row.ObjectKey,
		EventID:     row.EventID,
		DeviceID:    row.DeviceID,
		Filename:    row.Filename,
		ContentType: row.ContentType,
		IssuedAt:    fromMillis(row.IssuedAt),
		ExpiresAt:   fromMillis(row.ExpiresAt),
		ConsumedAt:  fromNullMillis(row.ConsumedAt),
	}
}
