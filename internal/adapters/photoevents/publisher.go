// Package photoevents announces confirmed photos as CloudEvents over HTTP.
package photoevents

import (
	"context"
	"fmt"
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	ceclient "github.com/cloudevents/sdk-go/v2/client"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

// PhotoConfirmedType is the CloudEvents type of a freshly recorded photo.
const PhotoConfirmedType = "io.eventlens.photo.confirmed"

// PhotoConfirmed is the event data.
type PhotoConfirmed struct {
	PhotoID    string    `json:"photo_id"`
	EventID    string    `json:"event_id"`
	DeviceID   string    `json:"device_id"`
	ObjectKey  string    `json:"object_key"`
	Filename   string    `json:"filename"`
	Note       string    `json:"note,omitempty"`
	FilterType string    `json:"filter_type,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Publisher sends photo events to one sink. A publisher without a sink drops events.
type Publisher struct {
	client ceclient.Client
	target string
	source string
}

var _ ports.PhotoEventPublisher = (*Publisher)(nil)

// New constructs a publisher for target. An empty target disables publishing.
func New(target, source string) (*Publisher, error) {
	target = strings.TrimSpace(target)
	source = strings.TrimRight(strings.TrimSpace(source), "/")
	if source == "" {
		source = "eventlens"
	}
	if target == "" {
		return &Publisher{source: source}, nil
	}
	protocol, err := cehttp.New(cehttp.WithTarget(target))
	if err != nil {
		return nil, fmt.Errorf("create cloudevents protocol: %w", err)
	}
	client, err := ceclient.New(protocol, ceclient.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("create cloudevents client: %w", err)
	}
	return &Publisher{client: client, target: target, source: source}, nil
}

// Enabled reports whether events leave the process.
func (p *Publisher) Enabled() bool {
	return p != nil && p.client != nil
}

func (p *Publisher) PublishPhotoConfirmed(ctx context.Context, event ports.Event, photo ports.PhotoRecord) error {
	if !p.Enabled() {
		return nil
	}
	ce, err := BuildPhotoConfirmed(p.source, event, photo)
	if err != nil {
		return err
	}
	result := p.client.Send(cloudevents.ContextWithTarget(ctx, p.target), ce)
	if cloudevents.IsUndelivered(result) {
		return fmt.Errorf("deliver %s: %w", ce.ID(), result)
	}
	if !cloudevents.IsACK(result) {
		return fmt.Errorf("sink rejected %s: %w", ce.ID(), result)
	}
	return nil
}

// BuildPhotoConfirmed builds the CloudEvent for a recorded photo.
func BuildPhotoConfirmed(source string, event ports.Event, photo ports.PhotoRecord) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(photo.ID)
	ce.SetType(PhotoConfirmedType)
	ce.SetSource(source + "/events/" + event.ID)
	ce.SetSubject(photo.ID)
	ce.SetTime(photo.UploadedAt)
	ce.SetExtension("eventid", event.ID)
	if err := ce.SetData(cloudevents.ApplicationJSON, PhotoConfirmed{
		PhotoID:    photo.ID,
		EventID:    event.ID,
		DeviceID:   photo.DeviceID,
		ObjectKey:  photo.ObjectKey,
		Filename:   photo.Filename,
		Note:       photo.Note,
		FilterType: event.FilterType,
		UploadedAt: photo.UploadedAt,
	}); err != nil {
		return cloudevents.Event{}, fmt.Errorf("encode photo event: %w", err)
	}
	if err := ce.Validate(); err != nil {
		return cloudevents.Event{}, fmt.Errorf("invalid photo event: %w", err)
	}
	return ce, nil
}
