// Package s3store authorizes direct browser uploads to S3-compatible buckets
// (AWS S3, Cloudflare R2, MinIO) with presigned PUT requests.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

// Options configures the bucket connection.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is a BlobStore backed by an S3-compatible bucket.
type Store struct {
	bucket  string
	objects objectAPI
	presign func(ctx context.Context, params *s3.PutObjectInput, ttl time.Duration) (string, http.Header, error)
	now     func() time.Time
}

var _ ports.BlobStore = (*Store)(nil)

// New loads AWS configuration and constructs the store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("bucket is required")
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "auto"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" || opts.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return newStore(opts.Bucket, client, s3.NewPresignClient(client)), nil
}

func newStore(bucket string, objects objectAPI, presigner *s3.PresignClient) *Store {
	return &Store{
		bucket:  bucket,
		objects: objects,
		presign: func(ctx context.Context, params *s3.PutObjectInput, ttl time.Duration) (string, http.Header, error) {
			req, err := presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", nil, err
			}
			return req.URL, req.SignedHeader, nil
		},
		now: time.Now,
	}
}

func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (ports.WriteAuthorization, error) {
	expiresAt := s.now().Add(ttl)
	signedURL, signedHeader, err := s.presign(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, ttl)
	if err != nil {
		return ports.WriteAuthorization{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	headers := map[string]string{"Content-Type": contentType}
	for name, values := range signedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values[0]
	}
	return ports.WriteAuthorization{
		URL:       signedURL,
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Store) Stat(ctx context.Context, key string) (ports.BlobInfo, error) {
	out, err := s.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ports.BlobInfo{}, ports.ErrBlobNotFound
		}
		return ports.BlobInfo{}, fmt.Errorf("head object %s: %w", key, err)
	}
	info := ports.BlobInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.ModifiedAt = *out.LastModified
	}
	return info, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return ports.ErrBlobNotFound
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
