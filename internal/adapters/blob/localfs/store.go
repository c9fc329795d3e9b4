// Package localfs stores photo objects on a filesystem and authorizes writes
// with HMAC-signed URLs served by the application itself.
package localfs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
)

// RoutePrefix is the path under which signed writes are accepted.
const RoutePrefix = "/blobs/"

const stagingDir = ".staging"

var (
	// ErrInvalidKey indicates a key that would escape the store root.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrInvalidSignature indicates a tampered or foreign write URL.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrExpired indicates the write URL is past its expiry.
	ErrExpired = errors.New("write authorization expired")
	// ErrContentTypeMismatch indicates the PUT content type differs from the signed one.
	ErrContentTypeMismatch = errors.New("content type mismatch")
	// ErrTooLarge indicates the body exceeds the upload limit.
	ErrTooLarge = errors.New("object too large")
	// ErrAlreadyExists indicates a second write to a write-once key.
	ErrAlreadyExists = errors.New("object already exists")
)

// Options configures a local store.
type Options struct {
	BaseURL  string
	Secret   string
	MaxBytes int64
}

// Store is a write-once object store on an afero filesystem.
type Store struct {
	fs       afero.Fs
	baseURL  string
	secret   []byte
	maxBytes int64
	now      func() time.Time
	mu       sync.Mutex
}

var _ ports.BlobStore = (*Store)(nil)

// New constructs a store rooted at fsys.
func New(fsys afero.Fs, opts Options) (*Store, error) {
	if fsys == nil {
		return nil, errors.New("filesystem is required")
	}
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("signing secret is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	if err := fsys.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Store{
		fs:       fsys,
		baseURL:  baseURL,
		secret:   []byte(opts.Secret),
		maxBytes: opts.MaxBytes,
		now:      time.Now,
	}, nil
}

// NewOnDisk constructs a store rooted at dir on the OS filesystem.
func NewOnDisk(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), opts)
}

func (s *Store) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (ports.WriteAuthorization, error) {
	if err := validateKey(key); err != nil {
		return ports.WriteAuthorization{}, err
	}
	expiresAt := s.now().Add(ttl).Truncate(time.Second)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	query := url.Values{}
	query.Set("ct", contentType)
	query.Set("expires", expires)
	query.Set("sig", s.sign(key, contentType, expires))

	return ports.WriteAuthorization{
		URL:       s.baseURL + RoutePrefix + escapeKey(key) + "?" + query.Encode(),
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a signed write request. contentType is the request header.
func (s *Store) Verify(key, contentType string, query url.Values) error {
	if err := validateKey(key); err != nil {
		return err
	}
	signedType := query.Get("ct")
	expires := query.Get("expires")
	if !hmac.Equal([]byte(s.sign(key, signedType, expires)), []byte(strings.ToLower(query.Get("sig")))) {
		return ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if s.now().After(time.Unix(unix, 0)) {
		return ErrExpired
	}
	if !strings.EqualFold(mediaType(contentType), mediaType(signedType)) {
		return ErrContentTypeMismatch
	}
	return nil
}

// Write stores body under key once. Partial bodies are never visible.
func (s *Store) Write(_ context.Context, key string, body io.Reader) (ports.BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return ports.BlobInfo{}, err
	}
	if s.exists(key) {
		return ports.BlobInfo{}, ErrAlreadyExists
	}

	staged := path.Join(stagingDir, uuid.NewString())
	file, err := s.fs.OpenFile(staged, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return ports.BlobInfo{}, fmt.Errorf("stage object: %w", err)
	}
	reader := body
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes+1)
	}
	written, copyErr := io.Copy(file, reader)
	closeErr := file.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr == nil && s.maxBytes > 0 && written > s.maxBytes {
		copyErr = ErrTooLarge
	}
	if copyErr != nil {
		_ = s.fs.Remove(staged)
		if errors.Is(copyErr, ErrTooLarge) {
			return ports.BlobInfo{}, ErrTooLarge
		}
		return ports.BlobInfo{}, fmt.Errorf("write object: %w", copyErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists(key) {
		_ = s.fs.Remove(staged)
		return ports.BlobInfo{}, ErrAlreadyExists
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		_ = s.fs.Remove(staged)
		return ports.BlobInfo{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := s.fs.Rename(staged, key); err != nil {
		_ = s.fs.Remove(staged)
		return ports.BlobInfo{}, fmt.Errorf("commit object: %w", err)
	}
	return s.statKey(key)
}

func (s *Store) Stat(_ context.Context, key string) (ports.BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return ports.BlobInfo{}, ports.ErrBlobNotFound
	}
	return s.statKey(key)
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return ports.ErrBlobNotFound
	}
	if err := s.fs.Remove(key); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.ErrBlobNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Store) statKey(key string) (ports.BlobInfo, error) {
	info, err := s.fs.Stat(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.BlobInfo{}, ports.ErrBlobNotFound
		}
		return ports.BlobInfo{}, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		return ports.BlobInfo{}, ports.ErrBlobNotFound
	}
	return ports.BlobInfo{
		Key:         key,
		Size:        info.Size(),
		ContentType: s.sniff(key),
		ModifiedAt:  info.ModTime(),
	}, nil
}

func (s *Store) sniff(key string) string {
	file, err := s.fs.Open(key)
	if err != nil {
		return ""
	}
	defer file.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	return http.DetectContentType(head[:n])
}

func (s *Store) exists(key string) bool {
	ok, err := afero.Exists(s.fs, key)
	return err == nil && ok
}

func (s *Store) sign(key, contentType, expires string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(http.MethodPut + "\n" + key + "\n" + contentType + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasPrefix(key, stagingDir) {
		return ErrInvalidKey
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." || segment == "." {
			return ErrInvalidKey
		}
	}
	return nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func mediaType(contentType string) string {
	value, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(value)
}
