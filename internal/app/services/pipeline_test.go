package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shyamsivadas/event-lens/internal/adapters/sqlstore"
	"github.com/shyamsivadas/event-lens/internal/app/ports"
	portmocks "github.com/shyamsivadas/event-lens/internal/app/ports/mocks"
	"github.com/shyamsivadas/event-lens/internal/db/dbtest"
)

var pipelineNow = time.Date(2026, 6, 1, 18, 30, 0, 0, time.UTC)

type pipelineFixture struct {
	store     *sqlstore.Store
	blobs     *portmocks.MockBlobStore
	publisher *portmocks.MockPhotoEventPublisher
	issuer    *IssuerService
	confirm   *ConfirmationService
	lookup    *LookupService
	event     ports.Event
}

func newPipelineFixture(t *testing.T, maxPhotos int) *pipelineFixture {
	t.Helper()

	database := dbtest.Open(t)
	store := sqlstore.NewStore(database)

	event, err := store.CreateEvent(context.Background(), ports.CreateEventInput{
		ID:                "evt_0123456789ab",
		ShareToken:        "c0ffee42",
		Name:              "Garden party",
		Date:              "2026-06-01",
		FilterType:        "pastel",
		MaxPhotosPerGuest: maxPhotos,
		CreatedAt:         pipelineNow,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	keys, err := NewObjectKeyGenerator(7)
	if err != nil {
		t.Fatalf("key generator: %v", err)
	}
	blobs := portmocks.NewMockBlobStore(t)
	publisher := portmocks.NewMockPhotoEventPublisher(t)

	issuer := NewIssuerService(store, store, store, blobs, keys, 10*time.Minute)
	issuer.now = func() time.Time { return pipelineNow }
	confirm := NewConfirmationService(store, store, store, blobs, publisher, nil, ConfirmationOptions{
		ConfirmGrace:   10 * time.Minute,
		MaxUploadBytes: 15 << 20,
	})
	confirm.now = func() time.Time { return pipelineNow.Add(time.Minute) }

	return &pipelineFixture{
		store:     store,
		blobs:     blobs,
		publisher: publisher,
		issuer:    issuer,
		confirm:   confirm,
		lookup:    NewLookupService(store, store, NewEventCache(8, time.Minute)),
		event:     event,
	}
}

func (f *pipelineFixture) expectPresign() {
	f.blobs.EXPECT().PresignPut(mock.Anything, mock.Anything, "image/jpeg", 10*time.Minute).
		RunAndReturn(func(_ context.Context, key, _ string, ttl time.Duration) (ports.WriteAuthorization, error) {
			return ports.WriteAuthorization{
				URL:       "https://blobs.test/" + key,
				Method:    "PUT",
				Headers:   map[string]string{"Content-Type": "image/jpeg"},
				ExpiresAt: pipelineNow.Add(ttl),
			}, nil
		})
}

func (f *pipelineFixture) expectStoredObjects() {
	f.blobs.EXPECT().Stat(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, key string) (ports.BlobInfo, error) {
			return ports.BlobInfo{Key: key, Size: 2048, ContentType: "image/jpeg", ModifiedAt: pipelineNow}, nil
		})
}

func (f *pipelineFixture) issue(t *testing.T, deviceID, filename string) IssuedTicket {
	t.Helper()
	ticket, err := f.issuer.Issue(context.Background(), IssueCommand{
		EventID:     f.event.ID,
		DeviceID:    deviceID,
		Filename:    filename,
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("issue %s: %v", filename, err)
	}
	return ticket
}

// grant records a ticket directly, as a concurrent issuance that passed the advisory check would.
func (f *pipelineFixture) grant(t *testing.T, deviceID, objectKey string) {
	t.Helper()
	if err := f.store.CreateTicket(context.Background(), ports.UploadTicket{
		ObjectKey:   objectKey,
		EventID:     f.event.ID,
		DeviceID:    deviceID,
		Filename:    "tab.jpg",
		ContentType: "image/jpeg",
		IssuedAt:    pipelineNow,
		ExpiresAt:   pipelineNow.Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("grant ticket: %v", err)
	}
}

func (f *pipelineFixture) used(t *testing.T, deviceID string) int {
	t.Helper()
	quota, err := f.lookup.Remaining(context.Background(), f.event.ID, deviceID)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	return quota.Used
}

func TestIssuerAdvisoryCheckCountsInFlightTickets(t *testing.T) {
	f := newPipelineFixture(t, 2)
	f.expectPresign()

	first := f.issue(t, "device-a", "one.jpg")
	f.issue(t, "device-a", "two.jpg")

	if !strings.HasPrefix(first.ObjectKey, "events/evt_0123456789ab/photos/device-a/") || !strings.HasSuffix(first.ObjectKey, "-one.jpg") {
		t.Fatalf("unexpected object key %q", first.ObjectKey)
	}
	if first.Method != "PUT" || !first.ExpiresAt.Equal(pipelineNow.Add(10*time.Minute)) {
		t.Fatalf("unexpected ticket %#v", first)
	}

	_, err := f.issuer.Issue(context.Background(), IssueCommand{EventID: f.event.ID, DeviceID: "device-a", Filename: "three.jpg", ContentType: "image/jpeg"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// another device on the same event is independent
	f.issue(t, "device-b", "one.jpg")

	// once tickets expire they stop counting
	f.issuer.now = func() time.Time { return pipelineNow.Add(11 * time.Minute) }
	if _, err := f.issuer.Issue(context.Background(), IssueCommand{EventID: f.event.ID, DeviceID: "device-a", Filename: "late.jpg", ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("expected issuance after expiry, got %v", err)
	}
}

func TestIssuerRejectsBadInputWithoutTouchingStorage(t *testing.T) {
	f := newPipelineFixture(t, 5)

	cases := []struct {
		name string
		cmd  IssueCommand
		want error
	}{
		{name: "gif", cmd: IssueCommand{EventID: f.event.ID, DeviceID: "d", Filename: "a.gif", ContentType: "image/gif"}, want: ErrInvalidInput},
		{name: "missing device", cmd: IssueCommand{EventID: f.event.ID, Filename: "a.jpg", ContentType: "image/jpeg"}, want: ErrInvalidInput},
		{name: "missing filename", cmd: IssueCommand{EventID: f.event.ID, DeviceID: "d", ContentType: "image/jpeg"}, want: ErrInvalidInput},
		{name: "unknown event", cmd: IssueCommand{EventID: "evt_missing", DeviceID: "d", Filename: "a.jpg", ContentType: "image/jpeg"}, want: ErrEventNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.issuer.Issue(context.Background(), tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfirmReplaysSameIdempotencyKey(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectPresign()
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	ticket := f.issue(t, "device-a", "cake.jpg")
	cmd := ConfirmCommand{
		EventID:        f.event.ID,
		DeviceID:       "device-a",
		ObjectKey:      ticket.ObjectKey,
		IdempotencyKey: "cap-1",
		Filename:       "cake.jpg",
		Note:           "  happy birthday  ",
	}

	first, err := f.confirm.Confirm(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := f.confirm.Confirm(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if first.Replayed || !second.Replayed {
		t.Fatalf("replay flags first=%v second=%v", first.Replayed, second.Replayed)
	}
	if first.Photo.ID != second.Photo.ID || !strings.HasPrefix(first.Photo.ID, "pht_") {
		t.Fatalf("photo ids differ: %s vs %s", first.Photo.ID, second.Photo.ID)
	}
	if first.Photo.Note != "happy birthday" {
		t.Fatalf("note=%q", first.Photo.Note)
	}
	if second.Quota.Used != 1 || second.Quota.Remaining != 4 {
		t.Fatalf("unexpected quota %#v", second.Quota)
	}
	if used := f.used(t, "device-a"); used != 1 {
		t.Fatalf("used=%d want=1", used)
	}
}

func TestConfirmTwoTabsAtQuotaBoundary(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectPresign()
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(5)

	for i := 0; i < 4; i++ {
		ticket := f.issue(t, "device-a", fmt.Sprintf("earlier-%d.jpg", i))
		if _, err := f.confirm.Confirm(context.Background(), ConfirmCommand{
			EventID: f.event.ID, DeviceID: "device-a", ObjectKey: ticket.ObjectKey, IdempotencyKey: fmt.Sprintf("earlier-%d", i),
		}); err != nil {
			t.Fatalf("confirm earlier %d: %v", i, err)
		}
	}

	f.grant(t, "device-a", "events/tab-1")
	f.grant(t, "device-a", "events/tab-2")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.confirm.Confirm(context.Background(), ConfirmCommand{
				EventID:        f.event.ID,
				DeviceID:       "device-a",
				ObjectKey:      fmt.Sprintf("events/tab-%d", i+1),
				IdempotencyKey: fmt.Sprintf("tab-%d", i+1),
			})
		}(i)
	}
	wg.Wait()

	succeeded, exceeded := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrQuotaExceeded):
			exceeded++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 || exceeded != 1 {
		t.Fatalf("succeeded=%d exceeded=%d", succeeded, exceeded)
	}
	if used := f.used(t, "device-a"); used != 5 {
		t.Fatalf("used=%d want=5", used)
	}
}

func TestConfirmConcurrentBurstNeverExceedsQuota(t *testing.T) {
	f := newPipelineFixture(t, 3)
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	const attempts = 10
	for i := 0; i < attempts; i++ {
		f.grant(t, "device-a", fmt.Sprintf("events/burst-%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.confirm.Confirm(context.Background(), ConfirmCommand{
				EventID:        f.event.ID,
				DeviceID:       "device-a",
				ObjectKey:      fmt.Sprintf("events/burst-%d", i),
				IdempotencyKey: fmt.Sprintf("burst-%d", i),
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if accepted != 3 {
		t.Fatalf("accepted=%d want=3", accepted)
	}
	if used := f.used(t, "device-a"); used != 3 {
		t.Fatalf("used=%d want=3", used)
	}
}

func TestConfirmFailsClosed(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.grant(t, "device-a", "events/missing-object")
	f.grant(t, "device-a", "events/expired")
	f.grant(t, "device-a", "events/foreign")

	f.blobs.EXPECT().Stat(mock.Anything, "events/missing-object").Return(ports.BlobInfo{}, ports.ErrBlobNotFound).Once()

	cases := []struct {
		name string
		now  time.Time
		cmd  ConfirmCommand
		want error
	}{
		{
			name: "object never written",
			cmd:  ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/missing-object", IdempotencyKey: "k1"},
			want: ErrObjectNotFound,
		},
		{
			name: "ticket never issued",
			cmd:  ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/forged", IdempotencyKey: "k2"},
			want: ErrObjectNotFound,
		},
		{
			name: "expired beyond grace",
			now:  pipelineNow.Add(21 * time.Minute),
			cmd:  ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/expired", IdempotencyKey: "k3"},
			want: ErrObjectNotFound,
		},
		{
			name: "ticket of another device",
			cmd:  ConfirmCommand{EventID: f.event.ID, DeviceID: "device-b", ObjectKey: "events/foreign", IdempotencyKey: "k4"},
			want: ErrObjectNotFound,
		},
		{
			name: "note too long",
			cmd:  ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/foreign", IdempotencyKey: "k5", Note: strings.Repeat("é", MaxNoteLength+1)},
			want: ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.confirm.now = func() time.Time { return pipelineNow.Add(time.Minute) }
			if !tc.now.IsZero() {
				f.confirm.now = func() time.Time { return tc.now }
			}
			_, err := f.confirm.Confirm(context.Background(), tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if used := f.used(t, "device-a"); used != 0 {
		t.Fatalf("used=%d want=0", used)
	}
}

func TestConfirmSecondKeyOnConsumedTicket(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.grant(t, "device-a", "events/once")

	if _, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/once", IdempotencyKey: "first"}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/once", IdempotencyKey: "second"})
	if !errors.Is(err, ErrTicketConsumed) {
		t.Fatalf("expected ErrTicketConsumed, got %v", err)
	}
}

func TestConfirmSurvivesPublisherFailure(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sink down")).Once()
	f.grant(t, "device-a", "events/p")

	result, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/p", IdempotencyKey: "p"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.Replayed || result.Quota.Used != 1 {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestConfirmPublishesAfterClientDisconnects(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectStoredObjects()
	f.grant(t, "device-a", "events/gone")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var publishErr error
	var hasDeadline bool
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(pubCtx context.Context, _ ports.Event, _ ports.PhotoRecord) error {
			cancel()
			publishErr = pubCtx.Err()
			_, hasDeadline = pubCtx.Deadline()
			return publishErr
		}).Once()

	_, _ = f.confirm.Confirm(ctx, ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/gone", IdempotencyKey: "gone"})
	if publishErr != nil || !hasDeadline {
		t.Fatalf("publish must outlive the request with its own deadline, err=%v deadline=%v", publishErr, hasDeadline)
	}
	if used := f.used(t, "device-a"); used != 1 {
		t.Fatalf("expected committed photo, used=%d", used)
	}

	replay, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/gone", IdempotencyKey: "gone"})
	if err != nil || !replay.Replayed {
		t.Fatalf("expected replay after disconnect, result=%#v err=%v", replay, err)
	}
}

func TestReaperRemovesOrphansOnly(t *testing.T) {
	f := newPipelineFixture(t, 5)
	f.expectStoredObjects()
	f.publisher.EXPECT().PublishPhotoConfirmed(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.grant(t, "device-a", "events/abandoned")
	f.grant(t, "device-a", "events/kept")

	if _, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/kept", IdempotencyKey: "kept"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	f.blobs.EXPECT().Delete(mock.Anything, "events/abandoned").Return(nil).Once()
	reaper := NewReaper(f.store, f.blobs, nil, 10*time.Minute, time.Minute)
	reaper.now = func() time.Time { return pipelineNow.Add(30 * time.Minute) }

	result, err := reaper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Tickets != 1 || result.Objects != 1 || result.Pruned != 1 {
		t.Fatalf("unexpected sweep result %#v", result)
	}

	f.confirm.now = reaper.now
	if _, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/abandoned", IdempotencyKey: "late"}); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound for reaped ticket, got %v", err)
	}
	// replay still works after the consumed ticket was pruned
	replay, err := f.confirm.Confirm(context.Background(), ConfirmCommand{EventID: f.event.ID, DeviceID: "device-a", ObjectKey: "events/kept", IdempotencyKey: "kept"})
	if err != nil || !replay.Replayed {
		t.Fatalf("expected replay after prune, got %#v err=%v", replay, err)
	}
	if used := f.used(t, "device-a"); used != 1 {
		t.Fatalf("used=%d want=1", used)
	}
}

func TestLookupResolveAndRemaining(t *testing.T) {
	f := newPipelineFixture(t, 2)

	event, err := f.lookup.Resolve(context.Background(), " c0ffee42 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if event.ID != f.event.ID || event.FilterType != "pastel" {
		t.Fatalf("unexpected event %#v", event)
	}
	if _, err := f.lookup.Resolve(context.Background(), "deadbeef"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	quota, err := f.lookup.Remaining(context.Background(), f.event.ID, "fresh-device")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if quota != (Quota{Used: 0, Max: 2, Remaining: 2}) {
		t.Fatalf("unexpected quota %#v", quota)
	}
	if _, err := f.lookup.Remaining(context.Background(), f.event.ID, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQuotaRemainingNeverNegative(t *testing.T) {
	if got := quotaOf(3, 5); got.Remaining != 0 {
		t.Fatalf("remaining=%d want=0", got.Remaining)
	}
}
