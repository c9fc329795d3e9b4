package s3store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

type fakeObjects struct {
	head    *s3.HeadObjectOutput
	headErr error
	deleted []string
	delErr  error
}

func (f *fakeObjects) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return f.head, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newFakeStore(objects *fakeObjects) *Store {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Store{
		bucket:  "guest-photos",
		objects: objects,
		presign: func(_ context.Context, params *s3.PutObjectInput, ttl time.Duration) (string, http.Header, error) {
			header := http.Header{}
			header.Set("Host", "guest-photos.r2.test")
			header.Set("Content-Type", aws.ToString(params.ContentType))
			header.Set("X-Amz-Meta-Source", "guest")
			return "https://guest-photos.r2.test/" + aws.ToString(params.Key) + "?X-Amz-Expires=" + ttl.String(), header, nil
		},
		now: func() time.Time { return now },
	}
}

func TestPresignPutForwardsSignedHeadersExceptHost(t *testing.T) {
	store := newFakeStore(&fakeObjects{})

	auth, err := store.PresignPut(context.Background(), "events/e/photos/d/1-a-x.jpg", "image/jpeg", 10*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if auth.Method != http.MethodPut || auth.URL == "" {
		t.Fatalf("unexpected authorization %#v", auth)
	}
	if _, ok := auth.Headers["Host"]; ok {
		t.Fatal("host header must not be forwarded")
	}
	if auth.Headers["Content-Type"] != "image/jpeg" || auth.Headers["X-Amz-Meta-Source"] != "guest" {
		t.Fatalf("unexpected headers %#v", auth.Headers)
	}
	if !auth.ExpiresAt.Equal(time.Date(2026, 6, 1, 12, 10, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %s", auth.ExpiresAt)
	}
}

func TestStatMapsMissingObjects(t *testing.T) {
	cases := []error{
		&types.NotFound{},
		&types.NoSuchKey{},
		&smithy.GenericAPIError{Code: "NotFound"},
	}
	for _, headErr := range cases {
		store := newFakeStore(&fakeObjects{headErr: headErr})
		if _, err := store.Stat(context.Background(), "missing"); !errors.Is(err, ports.ErrBlobNotFound) {
			t.Fatalf("expected ErrBlobNotFound for %T, got %v", headErr, err)
		}
	}

	store := newFakeStore(&fakeObjects{headErr: &smithy.GenericAPIError{Code: "AccessDenied"}})
	if _, err := store.Stat(context.Background(), "forbidden"); err == nil || errors.Is(err, ports.ErrBlobNotFound) {
		t.Fatalf("expected opaque error, got %v", err)
	}
}

func TestStatAndDelete(t *testing.T) {
	modified := time.Date(2026, 6, 1, 12, 3, 0, 0, time.UTC)
	objects := &fakeObjects{head: &s3.HeadObjectOutput{
		ContentLength: aws.Int64(4096),
		ContentType:   aws.String("image/jpeg"),
		LastModified:  aws.Time(modified),
	}}
	store := newFakeStore(objects)

	info, err := store.Stat(context.Background(), "events/k.jpg")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != 4096 || info.ContentType != "image/jpeg" || !info.ModifiedAt.Equal(modified) {
		t.Fatalf("unexpected info %#v", info)
	}

	if err := store.Delete(context.Background(), "events/k.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(objects.deleted) != 1 || objects.deleted[0] != "events/k.jpg" {
		t.Fatalf("unexpected deletes %v", objects.deleted)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
