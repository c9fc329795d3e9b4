package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/shyamsivadas/event-lens/internal/adapters/blob/localfs"
	"github.com/shyamsivadas/event-lens/internal/adapters/photoevents"
	"github.com/shyamsivadas/event-lens/internal/adapters/sqlstore"
	"github.com/shyamsivadas/event-lens/internal/app/ports"
	appservices "github.com/shyamsivadas/event-lens/internal/app/services"
	"github.com/shyamsivadas/event-lens/internal/db/dbtest"
)

const (
	testBaseURL    = "http://blobs.test"
	testShareToken = "5ca1ab1e"
	testEventID    = "evt_feedfacecafe"
)

var jpegBody = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x42}, 512)...)

type testApp struct {
	e     *echo.Echo
	blobs *localfs.Store
	store *sqlstore.Store
}

func newTestApp(t *testing.T, maxPhotos int) *testApp {
	t.Helper()
	return newTestAppAt(t, maxPhotos, testBaseURL)
}

func newTestAppAt(t *testing.T, maxPhotos int, blobBaseURL string) *testApp {
	t.Helper()

	database := dbtest.Open(t)
	store := sqlstore.NewStore(database)

	if _, err := store.CreateEvent(context.Background(), ports.CreateEventInput{
		ID:                testEventID,
		ShareToken:        testShareToken,
		Name:              "Rooftop wedding",
		Date:              "2026-09-12",
		FilterType:        "noir",
		MaxPhotosPerGuest: maxPhotos,
		CreatedAt:         time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create event: %v", err)
	}

	blobs, err := localfs.New(afero.NewMemMapFs(), localfs.Options{BaseURL: blobBaseURL, Secret: "route-test-secret", MaxBytes: 1 << 20})
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	publisher, err := photoevents.New("", "https://eventlens.test")
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	keys, err := appservices.NewObjectKeyGenerator(1)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	lookup := appservices.NewLookupService(store, store, appservices.NewEventCache(16, time.Minute))
	issuer := appservices.NewIssuerService(store, store, store, blobs, keys, 10*time.Minute)
	confirm := appservices.NewConfirmationService(store, store, store, blobs, publisher, log, appservices.ConfirmationOptions{
		ConfirmGrace:   10 * time.Minute,
		MaxUploadBytes: 1 << 20,
	})

	e := echo.New()
	NewGuestRoutes(lookup, issuer, confirm).RegisterRoutes(e)
	NewBlobRoutes(blobs).RegisterRoutes(e)
	NewHealthRoutes(database).RegisterRoutes(e)
	return &testApp{e: e, blobs: blobs, store: store}
}

func (a *testApp) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) put(t *testing.T, writeURL, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	target := strings.TrimPrefix(writeURL, testBaseURL)
	req := httptest.NewRequest(http.MethodPut, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func (a *testApp) ticket(t *testing.T, deviceID, filename string) uploadTicketResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/guest/"+testShareToken+"/upload-ticket", uploadTicketRequest{
		EventID:     testEventID,
		DeviceID:    deviceID,
		Filename:    filename,
		ContentType: "image/jpeg",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload-ticket status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[uploadTicketResponse](t, rec)
}

func (a *testApp) capture(t *testing.T, deviceID, filename, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	ticket := a.ticket(t, deviceID, filename)
	if rec := a.put(t, ticket.WriteURL, ticket.Headers["Content-Type"], jpegBody); rec.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rec.Code, rec.Body.String())
	}
	return a.do(t, http.MethodPost, "/guest/"+testShareToken+"/confirm-upload", confirmUploadRequest{
		DeviceID:       deviceID,
		ObjectKey:      ticket.ObjectKey,
		IdempotencyKey: idempotencyKey,
		Filename:       filename,
		Note:           "  first dance  ",
	})
}

func TestGuestEventLookup(t *testing.T) {
	app := newTestApp(t, 5)

	rec := app.do(t, http.MethodGet, "/guest/"+testShareToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	event := decode[eventResponse](t, rec)
	if event.EventID != testEventID || event.FilterType != "noir" || event.MaxPhotosPerGuest != 5 {
		t.Fatalf("unexpected event %+v", event)
	}

	rec = app.do(t, http.MethodGet, "/guest/deadbeef", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token status=%d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Error != "event_not_found" {
		t.Fatalf("unexpected error body %+v", got)
	}
}

func TestGuestCaptureFlow(t *testing.T) {
	app := newTestApp(t, 2)

	rec := app.capture(t, "device-alpha", "IMG 0001.jpg", "cap-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm status=%d body=%s", rec.Code, rec.Body.String())
	}
	first := decode[confirmUploadResponse](t, rec)
	if first.Replayed || first.Used != 1 || first.Remaining != 1 || first.Note != "first dance" {
		t.Fatalf("unexpected confirmation %+v", first)
	}

	replay := app.do(t, http.MethodPost, "/guest/"+testShareToken+"/confirm-upload", confirmUploadRequest{
		DeviceID:       "device-alpha",
		ObjectKey:      first.ObjectKey,
		IdempotencyKey: "cap-1",
	})
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status=%d body=%s", replay.Code, replay.Body.String())
	}
	if got := decode[confirmUploadResponse](t, replay); !got.Replayed || got.PhotoID != first.PhotoID || got.Used != 1 {
		t.Fatalf("unexpected replay %+v", got)
	}

	if rec := app.capture(t, "device-alpha", "IMG 0002.jpg", "cap-2"); rec.Code != http.StatusCreated {
		t.Fatalf("second confirm status=%d body=%s", rec.Code, rec.Body.String())
	}

	limit := app.do(t, http.MethodGet, "/guest/"+testShareToken+"/limit?device_id=device-alpha", nil)
	if got := decode[limitResponse](t, limit); got.Used != 2 || got.Max != 2 || got.Remaining != 0 {
		t.Fatalf("unexpected limit %+v", got)
	}

	rec = app.do(t, http.MethodPost, "/guest/"+testShareToken+"/upload-ticket", uploadTicketRequest{
		DeviceID:    "device-alpha",
		Filename:    "IMG 0003.jpg",
		ContentType: "image/jpeg",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("ticket past quota status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[errorResponse](t, rec); got.Error != "quota_exceeded" {
		t.Fatalf("unexpected error body %+v", got)
	}

	other := app.do(t, http.MethodGet, "/guest/"+testShareToken+"/limit?device_id=device-beta", nil)
	if got := decode[limitResponse](t, other); got.Used != 0 || got.Remaining != 2 {
		t.Fatalf("devices must not share a quota, got %+v", got)
	}
}

func TestConfirmWithoutUploadIsObjectNotFound(t *testing.T) {
	app := newTestApp(t, 3)

	ticket := app.ticket(t, "device-alpha", "skipped.jpg")
	rec := app.do(t, http.MethodPost, "/guest/"+testShareToken+"/confirm-upload", confirmUploadRequest{
		DeviceID:       "device-alpha",
		ObjectKey:      ticket.ObjectKey,
		IdempotencyKey: "cap-1",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	foreign := app.do(t, http.MethodPost, "/guest/"+testShareToken+"/confirm-upload", confirmUploadRequest{
		DeviceID:       "device-beta",
		ObjectKey:      ticket.ObjectKey,
		IdempotencyKey: "cap-1",
	})
	if foreign.Code != http.StatusNotFound {
		t.Fatalf("foreign device status=%d", foreign.Code)
	}
}

func TestUploadTicketRejectsBadInput(t *testing.T) {
	app := newTestApp(t, 3)

	cases := []struct {
		name string
		req  uploadTicketRequest
	}{
		{name: "event mismatch", req: uploadTicketRequest{EventID: "evt_000000000000", DeviceID: "d", Filename: "a.jpg", ContentType: "image/jpeg"}},
		{name: "missing device", req: uploadTicketRequest{Filename: "a.jpg", ContentType: "image/jpeg"}},
		{name: "unsupported type", req: uploadTicketRequest{DeviceID: "d", Filename: "a.gif", ContentType: "image/gif"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/guest/"+testShareToken+"/upload-ticket", tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBlobPutRejectsTamperingAndRewrites(t *testing.T) {
	app := newTestApp(t, 3)
	ticket := app.ticket(t, "device-alpha", "a.jpg")

	tampered, err := url.Parse(ticket.WriteURL)
	if err != nil {
		t.Fatalf("parse write url: %v", err)
	}
	query := tampered.Query()
	query.Set("expires", fmt.Sprint(time.Now().Add(48*time.Hour).Unix()))
	tampered.RawQuery = query.Encode()
	if rec := app.put(t, tampered.String(), "image/jpeg", jpegBody); rec.Code != http.StatusForbidden {
		t.Fatalf("tampered status=%d", rec.Code)
	}
	if rec := app.put(t, ticket.WriteURL, "image/png", jpegBody); rec.Code != http.StatusBadRequest {
		t.Fatalf("content type mismatch status=%d", rec.Code)
	}
	if rec := app.put(t, ticket.WriteURL, "image/jpeg", bytes.Repeat([]byte{0xff}, 2<<20)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized status=%d", rec.Code)
	}
	if rec := app.put(t, ticket.WriteURL, "image/jpeg", jpegBody); rec.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := app.put(t, ticket.WriteURL, "image/jpeg", jpegBody); rec.Code != http.StatusConflict {
		t.Fatalf("rewrite status=%d", rec.Code)
	}

	info, err := app.blobs.Stat(context.Background(), ticket.ObjectKey)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != int64(len(jpegBody)) || info.ContentType != "image/jpeg" {
		t.Fatalf("unexpected blob info %+v", info)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, 1)
	if rec := app.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	e := echo.New()
	NewHealthRoutes(failingPinger{}).RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestWriteServiceErrorHidesInternalErrors(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	rec := c.Response().Writer.(*httptest.ResponseRecorder)

	if err := writeServiceError(c, errors.New("disk on fire")); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}
