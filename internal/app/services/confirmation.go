package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/observability"
)

const (
	// MaxNoteLength is the longest accepted note, in characters.
	MaxNoteLength = 280
	// DefaultConfirmGrace is how long after ticket expiry a finished upload may still be confirmed.
	DefaultConfirmGrace = 10 * time.Minute

	maxIdempotencyKeyLength = 128
)

// ConfirmCommand asks to record one uploaded photo.
type ConfirmCommand struct {
	EventID        string
	DeviceID       string
	ObjectKey      string
	IdempotencyKey string
	Filename       string
	Note           string
}

// ConfirmResult is a recorded photo and the quota after recording it.
type ConfirmResult struct {
	Photo    ports.PhotoRecord
	Replayed bool
	Quota    Quota
}

// ConfirmationService records photos after verifying the object and the quota.
type ConfirmationService struct {
	events    ports.EventStore
	ledger    ports.QuotaLedger
	tickets   ports.TicketStore
	blobs     ports.BlobStore
	publisher ports.PhotoEventPublisher
	log       *slog.Logger
	grace     time.Duration
	maxBytes  int64
	locks     *quotaKeyLock
	now       func() time.Time
	newID     func() string
	metrics   pipelineMetrics
}

// ConfirmationOptions tunes confirmation limits.
const publishTimeout = 5 * time.Second

type ConfirmationOptions struct {
	ConfirmGrace   time.Duration
	MaxUploadBytes int64
}

// NewConfirmationService constructs the confirmation service. publisher and log may be nil.
func NewConfirmationService(events ports.EventStore, ledger ports.QuotaLedger, tickets ports.TicketStore, blobs ports.BlobStore, publisher ports.PhotoEventPublisher, log *slog.Logger, opts ConfirmationOptions) *ConfirmationService {
	if log == nil {
		log = slog.Default()
	}
	if opts.ConfirmGrace < 0 {
		opts.ConfirmGrace = 0
	}
	return &ConfirmationService{
		events:    events,
		ledger:    ledger,
		tickets:   tickets,
		blobs:     blobs,
		publisher: publisher,
		log:       log,
		grace:     opts.ConfirmGrace,
		maxBytes:  opts.MaxUploadBytes,
		locks:     &quotaKeyLock{},
		now:       time.Now,
		newID:     NewPhotoID,
		metrics:   newPipelineMetrics(),
	}
}

// Confirm records a photo exactly once per idempotency key.
//
// A repeated key returns the original record with Replayed set. A ticket that
// expired unused, belongs to another quota key or has no stored object yields
// ErrObjectNotFound. The ledger refuses the increment with ErrQuotaExceeded
// once the device reached max_photos_per_guest.
func (s *ConfirmationService) Confirm(ctx context.Context, cmd ConfirmCommand) (ConfirmResult, error) {
	ctx, span := observability.StartServiceSpan(ctx, "confirmation.confirm")
	defer span.End()

	result, err := s.confirm(ctx, cmd)
	switch {
	case err != nil:
		span.RecordError(err)
		s.metrics.recordConfirmation(ctx, string(ClassifyError(err)))
	case result.Replayed:
		s.metrics.recordConfirmation(ctx, "replayed")
	default:
		s.metrics.recordConfirmation(ctx, "recorded")
	}
	return result, err
}

func (s *ConfirmationService) confirm(ctx context.Context, cmd ConfirmCommand) (ConfirmResult, error) {
	cmd, err := normalizeConfirmCommand(cmd)
	if err != nil {
		return ConfirmResult{}, err
	}
	event, err := loadEvent(ctx, s.events, cmd.EventID)
	if err != nil {
		return ConfirmResult{}, err
	}
	ctx = observability.WithQuotaKey(ctx, event.ID, cmd.DeviceID)

	ticket, err := s.tickets.GetTicket(ctx, cmd.ObjectKey)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			return ConfirmResult{}, err
		}
		// Consumed tickets are pruned after the grace window; the photo row outlives them.
		if replay, ok, err := s.replay(ctx, event, cmd); err != nil || ok {
			return replay, err
		}
		return ConfirmResult{}, ErrObjectNotFound
	}
	if ticket.EventID != event.ID || ticket.DeviceID != cmd.DeviceID {
		return ConfirmResult{}, ErrObjectNotFound
	}
	if ticket.Consumed() {
		if replay, ok, err := s.replay(ctx, event, cmd); err != nil || ok {
			return replay, err
		}
		return ConfirmResult{}, ErrTicketConsumed
	}
	if s.now().After(ticket.ExpiresAt.Add(s.grace)) {
		return ConfirmResult{}, ErrObjectNotFound
	}

	info, err := s.blobs.Stat(ctx, cmd.ObjectKey)
	if err != nil {
		if errors.Is(err, ports.ErrBlobNotFound) {
			return ConfirmResult{}, ErrObjectNotFound
		}
		return ConfirmResult{}, fmt.Errorf("stat object: %w", err)
	}
	if s.maxBytes > 0 && info.Size > s.maxBytes {
		return ConfirmResult{}, invalidInput("object exceeds upload size limit")
	}
	contentType := ticket.ContentType
	if contentType == "" {
		contentType = normalizeContentType(info.ContentType)
	}
	filename := cmd.Filename
	if filename == "" {
		filename = ticket.Filename
	}

	unlock := s.locks.lock(event.ID, cmd.DeviceID)
	outcome, err := s.ledger.RecordConfirmation(ctx, ports.RecordConfirmationInput{
		PhotoID:        s.newID(),
		EventID:        event.ID,
		DeviceID:       cmd.DeviceID,
		ObjectKey:      cmd.ObjectKey,
		IdempotencyKey: cmd.IdempotencyKey,
		Filename:       filename,
		Note:           cmd.Note,
		ContentType:    contentType,
		MaxPhotos:      event.MaxPhotosPerGuest,
		ConfirmedAt:    s.now().UTC(),
	})
	unlock()
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrQuotaExhausted):
			return ConfirmResult{}, ErrQuotaExceeded
		case errors.Is(err, ports.ErrTicketUnavailable):
			return ConfirmResult{}, ErrTicketConsumed
		default:
			return ConfirmResult{}, fmt.Errorf("record confirmation: %w", err)
		}
	}

	if !outcome.Replayed {
		s.publish(ctx, event, outcome.Photo)
	}
	quota, err := s.quotaAfter(ctx, event, cmd.DeviceID)
	if err != nil {
		return ConfirmResult{}, err
	}
	return ConfirmResult{Photo: outcome.Photo, Replayed: outcome.Replayed, Quota: quota}, nil
}

func (s *ConfirmationService) replay(ctx context.Context, event ports.Event, cmd ConfirmCommand) (ConfirmResult, bool, error) {
	photo, err := s.ledger.FindPhotoByIdempotencyKey(ctx, event.ID, cmd.DeviceID, cmd.IdempotencyKey)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ConfirmResult{}, false, nil
		}
		return ConfirmResult{}, false, err
	}
	quota, err := s.quotaAfter(ctx, event, cmd.DeviceID)
	if err != nil {
		return ConfirmResult{}, false, err
	}
	return ConfirmResult{Photo: photo, Replayed: true, Quota: quota}, true, nil
}

func (s *ConfirmationService) quotaAfter(ctx context.Context, event ports.Event, deviceID string) (Quota, error) {
	entry, err := s.ledger.GetLedgerEntry(ctx, event.ID, deviceID)
	if err != nil {
		return Quota{}, err
	}
	return quotaOf(event.MaxPhotosPerGuest, entry.ConfirmedCount), nil
}

// publish runs detached from the request so a guest that disconnects after
// commit does not drop the event.
func (s *ConfirmationService) publish(ctx context.Context, event ports.Event, photo ports.PhotoRecord) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishPhotoConfirmed(ctx, event, photo); err != nil {
		s.metrics.publishFailures.Add(ctx, 1)
		s.log.WarnContext(ctx, "photo event publish failed", "photo_id", photo.ID, "error", err)
	}
}

func normalizeConfirmCommand(cmd ConfirmCommand) (ConfirmCommand, error) {
	deviceID, err := normalizeDeviceID(cmd.DeviceID)
	if err != nil {
		return ConfirmCommand{}, err
	}
	cmd.DeviceID = deviceID
	cmd.ObjectKey = strings.TrimSpace(cmd.ObjectKey)
	if cmd.ObjectKey == "" {
		return ConfirmCommand{}, invalidInput("object_key is required")
	}
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)
	switch {
	case cmd.IdempotencyKey == "":
		return ConfirmCommand{}, invalidInput("idempotency_key is required")
	case len(cmd.IdempotencyKey) > maxIdempotencyKeyLength:
		return ConfirmCommand{}, invalidInput("idempotency_key is too long")
	}
	note, err := NormalizeNote(cmd.Note)
	if err != nil {
		return ConfirmCommand{}, err
	}
	cmd.Note = note
	if strings.TrimSpace(cmd.Filename) != "" {
		cmd.Filename = SanitizeFilename(cmd.Filename)
	} else {
		cmd.Filename = ""
	}
	return cmd, nil
}

// NormalizeNote trims a note and rejects notes longer than MaxNoteLength.
func NormalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return "", invalidInput(fmt.Sprintf("note exceeds %d characters", MaxNoteLength))
	}
	return note, nil
}
