package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/observability"
)

// DefaultTicketTTL bounds how long a write authorization stays valid.
const DefaultTicketTTL = 10 * time.Minute

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
}

// AllowedContentType reports whether uploads of contentType are accepted.
func AllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[normalizeContentType(contentType)]
	return ok
}

func normalizeContentType(contentType string) string {
	contentType, _, _ = strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IssueCommand requests permission to write one photo.
type IssueCommand struct {
	EventID     string
	DeviceID    string
	Filename    string
	ContentType string
}

// IssuedTicket is the client-facing part of an upload ticket.
type IssuedTicket struct {
	ObjectKey string
	WriteURL  string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// IssuerService mints upload tickets after an advisory quota check.
type IssuerService struct {
	events  ports.EventStore
	ledger  ports.QuotaLedger
	tickets ports.TicketStore
	blobs   ports.BlobStore
	keys    *ObjectKeyGenerator
	ttl     time.Duration
	now     func() time.Time
	metrics pipelineMetrics
}

// NewIssuerService constructs the upload ticket issuer.
func NewIssuerService(events ports.EventStore, ledger ports.QuotaLedger, tickets ports.TicketStore, blobs ports.BlobStore, keys *ObjectKeyGenerator, ttl time.Duration) *IssuerService {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &IssuerService{
		events:  events,
		ledger:  ledger,
		tickets: tickets,
		blobs:   blobs,
		keys:    keys,
		ttl:     ttl,
		now:     time.Now,
		metrics: newPipelineMetrics(),
	}
}

// Issue returns a single-use write authorization for one object.
//
// The quota check counts confirmed photos plus unexpired in-flight tickets.
// It only fails fast; concurrent callers can both pass it and confirmation
// remains the enforcement point.
func (s *IssuerService) Issue(ctx context.Context, cmd IssueCommand) (IssuedTicket, error) {
	ctx, span := observability.StartServiceSpan(ctx, "issuer.issue")
	defer span.End()

	ticket, err := s.issue(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		s.metrics.recordRejectedTicket(ctx, err)
		return IssuedTicket{}, err
	}
	s.metrics.ticketsIssued.Add(ctx, 1)
	return ticket, nil
}

func (s *IssuerService) issue(ctx context.Context, cmd IssueCommand) (IssuedTicket, error) {
	deviceID, err := normalizeDeviceID(cmd.DeviceID)
	if err != nil {
		return IssuedTicket{}, err
	}
	contentType := normalizeContentType(cmd.ContentType)
	if !AllowedContentType(contentType) {
		return IssuedTicket{}, invalidInput(fmt.Sprintf("content type %q is not accepted", cmd.ContentType))
	}
	if strings.TrimSpace(cmd.Filename) == "" {
		return IssuedTicket{}, invalidInput("filename is required")
	}

	event, err := loadEvent(ctx, s.events, cmd.EventID)
	if err != nil {
		return IssuedTicket{}, err
	}
	ctx = observability.WithQuotaKey(ctx, event.ID, deviceID)

	now := s.now().UTC()
	entry, err := s.ledger.GetLedgerEntry(ctx, event.ID, deviceID)
	if err != nil {
		return IssuedTicket{}, err
	}
	inFlight, err := s.tickets.CountInFlight(ctx, event.ID, deviceID, now)
	if err != nil {
		return IssuedTicket{}, err
	}
	if entry.ConfirmedCount+inFlight >= event.MaxPhotosPerGuest {
		return IssuedTicket{}, ErrQuotaExceeded
	}

	filename := SanitizeFilename(cmd.Filename)
	objectKey := s.keys.Next(event.ID, deviceID, filename, now)
	auth, err := s.blobs.PresignPut(ctx, objectKey, contentType, s.ttl)
	if err != nil {
		return IssuedTicket{}, fmt.Errorf("authorize write: %w", err)
	}
	expiresAt := auth.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}

	if err := s.tickets.CreateTicket(ctx, ports.UploadTicket{
		ObjectKey:   objectKey,
		EventID:     event.ID,
		DeviceID:    deviceID,
		Filename:    filename,
		ContentType: contentType,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}); err != nil {
		return IssuedTicket{}, fmt.Errorf("record ticket: %w", err)
	}

	return IssuedTicket{
		ObjectKey: objectKey,
		WriteURL:  auth.URL,
		Method:    auth.Method,
		Headers:   auth.Headers,
		ExpiresAt: expiresAt,
	}, nil
}
