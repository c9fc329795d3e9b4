package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	"github.com/shyamsivadas/event-lens/internal/observability"
)

const maxDeviceIDLength = 128

// Quota is the confirmed usage of one quota key.
type Quota struct {
	Used      int
	Max       int
	Remaining int
}

// LookupService resolves share tokens and remaining quota. It never mutates state.
type LookupService struct {
	events ports.EventStore
	ledger ports.QuotaLedger
	cache  *EventCache
}

// NewLookupService constructs the read-only event and quota resolver.
// cache may be nil.
func NewLookupService(events ports.EventStore, ledger ports.QuotaLedger, cache *EventCache) *LookupService {
	return &LookupService{events: events, ledger: ledger, cache: cache}
}

// Resolve returns the event published under a share token.
func (s *LookupService) Resolve(ctx context.Context, shareToken string) (ports.Event, error) {
	shareToken = strings.TrimSpace(shareToken)
	if shareToken == "" {
		return ports.Event{}, ErrEventNotFound
	}
	if event, ok := s.cache.Get(ctx, shareToken); ok {
		return event, nil
	}
	event, err := s.events.GetEventByShareToken(ctx, shareToken)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Event{}, ErrEventNotFound
		}
		return ports.Event{}, err
	}
	s.cache.Put(event)
	return event, nil
}

// Remaining returns used, max and remaining photos for (eventID, deviceID).
func (s *LookupService) Remaining(ctx context.Context, eventID, deviceID string) (Quota, error) {
	event, err := loadEvent(ctx, s.events, eventID)
	if err != nil {
		return Quota{}, err
	}
	return s.QuotaFor(ctx, event, deviceID)
}

// QuotaFor is Remaining for an already resolved event.
func (s *LookupService) QuotaFor(ctx context.Context, event ports.Event, deviceID string) (Quota, error) {
	deviceID, err := normalizeDeviceID(deviceID)
	if err != nil {
		return Quota{}, err
	}
	ctx = observability.WithQuotaKey(ctx, event.ID, deviceID)
	entry, err := s.ledger.GetLedgerEntry(ctx, event.ID, deviceID)
	if err != nil {
		return Quota{}, err
	}
	return quotaOf(event.MaxPhotosPerGuest, entry.ConfirmedCount), nil
}

func quotaOf(maxPhotos, used int) Quota {
	return Quota{
		Used:      used,
		Max:       maxPhotos,
		Remaining: max(0, maxPhotos-used),
	}
}

func loadEvent(ctx context.Context, events ports.EventStore, eventID string) (ports.Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return ports.Event{}, ErrEventNotFound
	}
	event, err := events.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Event{}, ErrEventNotFound
		}
		return ports.Event{}, err
	}
	return event, nil
}

func normalizeDeviceID(deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	switch {
	case deviceID == "":
		return "", invalidInput("device_id is required")
	case len(deviceID) > maxDeviceIDLength:
		return "", invalidInput("device_id is too long")
	default:
		return deviceID, nil
	}
}
