package ports

import "context"

// PhotoEventPublisher announces freshly confirmed photos to downstream consumers.
type PhotoEventPublisher interface {
	PublishPhotoConfirmed(ctx context.Context, event Event, photo PhotoRecord) error
}
