package ports

import (
	"context"
	"time"
)

// WriteAuthorization is a time-bounded permission to write one object.
type WriteAuthorization struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Key         string
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// BlobStore is the object storage the guest writes into directly.
// Stat returns ErrBlobNotFound for missing keys.
type BlobStore interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (WriteAuthorization, error)
	Stat(ctx context.Context, key string) (BlobInfo, error)
	Delete(ctx context.Context, key string) error
}
