package photoevents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	cebinding "github.com/cloudevents/sdk-go/v2/binding"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

var (
	testEvent = ports.Event{ID: "evt_0123456789ab", FilterType: "film"}
	testPhoto = ports.PhotoRecord{
		ID:         "pht_aaaabbbbcccc",
		EventID:    "evt_0123456789ab",
		DeviceID:   "device-1",
		ObjectKey:  "events/evt_0123456789ab/photos/device-1/1-a-cake.jpg",
		Filename:   "cake.jpg",
		Note:       "for the couple",
		UploadedAt: time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
	}
)

func TestPublishPhotoConfirmedDeliversCloudEvent(t *testing.T) {
	var (
		mu       sync.Mutex
		received []PhotoConfirmed
		types    []string
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		message := cehttp.NewMessageFromHttpRequest(r)
		defer func() { _ = message.Finish(nil) }()
		event, err := cebinding.ToEvent(r.Context(), message)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var data PhotoConfirmed
		if err := event.DataAs(&data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, data)
		types = append(types, event.Type())
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	publisher, err := New(sink.URL, "https://eventlens.test/")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if err := publisher.PublishPhotoConfirmed(context.Background(), testEvent, testPhoto); err != nil {
		t.Fatalf("publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || types[0] != PhotoConfirmedType {
		t.Fatalf("unexpected deliveries %v %v", received, types)
	}
	if received[0].PhotoID != testPhoto.ID || received[0].Note != "for the couple" || received[0].FilterType != "film" {
		t.Fatalf("unexpected payload %#v", received[0])
	}
}

func TestPublishPhotoConfirmedReportsRejection(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sink.Close()

	publisher, err := New(sink.URL, "")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if err := publisher.PublishPhotoConfirmed(context.Background(), testEvent, testPhoto); err == nil {
		t.Fatal("expected rejection error")
	}
}

func TestPublisherWithoutSinkIsNoop(t *testing.T) {
	publisher, err := New("  ", "")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	if publisher.Enabled() {
		t.Fatal("publisher without sink must be disabled")
	}
	if err := publisher.PublishPhotoConfirmed(context.Background(), testEvent, testPhoto); err != nil {
		t.Fatalf("noop publish returned %v", err)
	}
}

func TestBuildPhotoConfirmed(t *testing.T) {
	ce, err := BuildPhotoConfirmed("eventlens", testEvent, testPhoto)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ce.ID() != testPhoto.ID || ce.Source() != "eventlens/events/evt_0123456789ab" {
		t.Fatalf("unexpected event context id=%s source=%s", ce.ID(), ce.Source())
	}
	if got := ce.Extensions()["eventid"]; got != testEvent.ID {
		t.Fatalf("unexpected eventid extension %v", got)
	}
}
