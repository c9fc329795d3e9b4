package sqlstore

import (
	"context"
	"database/sql"

	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

type storeDatabase interface {
	CreateEvent(ctx context.Context, arg queries.CreateEventParams) (queries.Event, error)
	GetEventByShareToken(ctx context.Context, shareToken string) (queries.Event, error)
	GetEventByID(ctx context.Context, id string) (queries.Event, error)

	GetLedgerEntry(ctx context.Context, arg queries.GetLedgerEntryParams) (queries.QuotaLedger, error)
	GetPhotoByIdempotencyKey(ctx context.Context, arg queries.GetPhotoByIdempotencyKeyParams) (queries.Photo, error)

	CreateUploadTicket(ctx context.Context, arg queries.CreateUploadTicketParams) error
	GetUploadTicket(ctx context.Context, objectKey string) (queries.UploadTicket, error)
	CountInFlightTickets(ctx context.Context, arg queries.CountInFlightTicketsParams) (int64, error)
	ListExpiredUploadTickets(ctx context.Context, arg queries.ListExpiredUploadTicketsParams) ([]queries.UploadTicket, error)
	DeleteUploadTicket(ctx context.Context, objectKey string) (int64, error)
	DeleteConsumedUploadTickets(ctx context.Context, consumedAt sql.NullInt64) (int64, error)

	WithTx(ctx context.Context, fn func(*queries.Queries) error) error
}
