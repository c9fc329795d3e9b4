// Package capture runs the guest capture flow: select photos under the device
// quota, annotate them, and upload each one through ticket, transfer and confirm.
package capture

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/shyamsivadas/event-lens/pkg/guestclient"
)

type State string

const (
	StateInit         State = "INIT"
	StateLoaded       State = "LOADED"
	StateSelecting    State = "SELECTING"
	StateReviewing    State = "REVIEWING"
	StateUploading    State = "UPLOADING"
	StateDone         State = "DONE"
	StateLimitReached State = "LIMIT_REACHED"
)

const (
	// BatchCap bounds one upload pass independently of the guest quota.
	BatchCap             = 5
	MaxNoteLength        = 280
	DefaultMaxImageBytes = 15 << 20
)

// Origin records where a capture came from.
type Origin string

const (
	OriginCamera  Origin = "camera"
	OriginGallery Origin = "gallery"
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}

var (
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrBatchFull       = errors.New("batch is full")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrImageTooLarge   = errors.New("image too large")
	ErrNoteTooLong     = errors.New("note too long")
	ErrUnknownCapture  = errors.New("unknown capture")
	ErrNoDeviceID      = errors.New("device id is required")
)

// API is the guest pipeline as seen by a capture session.
type API interface {
	ResolveEvent(ctx context.Context, shareToken string) (guestclient.Event, error)
	Limit(ctx context.Context, shareToken, deviceID string) (guestclient.Quota, error)
	IssueTicket(ctx context.Context, shareToken string, req guestclient.TicketRequest) (guestclient.Ticket, error)
	Transfer(ctx context.Context, ticket guestclient.Ticket, body []byte) error
	Confirm(ctx context.Context, shareToken string, req guestclient.ConfirmRequest) (guestclient.Confirmation, error)
}

// Capture is one pending photo. It never leaves the client as a whole.
type Capture struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
	Note        string
	Origin      Origin

	// IdempotencyKey is fixed for the capture's lifetime.
	IdempotencyKey string
	// ObjectKey is set once bytes reached blob storage and reused on retry.
	ObjectKey string
}

// Transferred reports whether the bytes already reached blob storage.
func (c Capture) Transferred() bool {
	return c.ObjectKey != ""
}

type Options struct {
	// Concurrency above 1 uploads captures of a batch in parallel.
	Concurrency   int
	MaxImageBytes int64
}

// Session is one guest's capture flow for a single page load.
type Session struct {
	api        API
	shareToken string
	deviceID   string
	opts       Options

	mu      sync.Mutex
	state   State
	event   guestclient.Event
	quota   guestclient.Quota
	pending []*Capture
}

func NewSession(api API, shareToken, deviceID string, opts Options) *Session {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Session{
		api:        api,
		shareToken: strings.TrimSpace(shareToken),
		deviceID:   strings.TrimSpace(deviceID),
		opts:       opts,
		state:      StateInit,
	}
}

// Init resolves the event and the device quota. A missing event aborts the session.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInit {
		return ErrInvalidState
	}
	if s.deviceID == "" {
		return ErrNoDeviceID
	}

	event, err := s.api.ResolveEvent(ctx, s.shareToken)
	if err != nil {
		return fmt.Errorf("resolve event: %w", err)
	}
	quota, err := s.api.Limit(ctx, s.shareToken, s.deviceID)
	if err != nil {
		return fmt.Errorf("fetch quota: %w", err)
	}

	s.event = event
	s.quota = quota
	s.state = StateLoaded
	if quota.Remaining <= 0 {
		s.state = StateLimitReached
	}
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Event() guestclient.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

func (s *Session) Quota() guestclient.Quota {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quota
}

// Capacity is how many more captures the current batch accepts.
func (s *Session) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity()
}

func (s *Session) capacity() int {
	return max(0, lo.Min([]int{s.quota.Remaining, BatchCap})-len(s.pending))
}

// Pending returns a snapshot of the pending set in selection order.
func (s *Session) Pending() []Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.pending, func(c *Capture, _ int) Capture { return *c })
}

// Add validates and appends a capture to the pending set.
func (s *Session) Add(filename, contentType string, data []byte, origin Origin) (Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in(StateLoaded, StateSelecting, StateReviewing) {
		return Capture{}, ErrInvalidState
	}
	mediaType, err := validateImage(contentType, len(data), s.opts.MaxImageBytes)
	if err != nil {
		return Capture{}, err
	}
	if s.capacity() == 0 {
		return Capture{}, ErrBatchFull
	}

	capture := &Capture{
		ID:             uuid.NewString(),
		Filename:       strings.TrimSpace(filename),
		ContentType:    mediaType,
		Data:           data,
		Origin:         origin,
		IdempotencyKey: uuid.NewString(),
	}
	s.pending = append(s.pending, capture)
	s.state = StateSelecting
	return *capture, nil
}

func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in(StateSelecting, StateReviewing) {
		return ErrInvalidState
	}
	_, index, ok := lo.FindIndexOf(s.pending, func(c *Capture) bool { return c.ID == id })
	if !ok {
		return ErrUnknownCapture
	}
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
	if len(s.pending) == 0 {
		s.state = StateSelecting
	}
	return nil
}

// Review moves the session to note editing.
func (s *Session) Review() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in(StateSelecting, StateReviewing) || len(s.pending) == 0 {
		return ErrInvalidState
	}
	s.state = StateReviewing
	return nil
}

// Select returns from note editing to selection.
func (s *Session) Select() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.in(StateSelecting, StateReviewing) {
		return ErrInvalidState
	}
	s.state = StateSelecting
	return nil
}

func (s *Session) SetNote(id, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReviewing {
		return ErrInvalidState
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	capture, ok := lo.Find(s.pending, func(c *Capture) bool { return c.ID == id })
	if !ok {
		return ErrUnknownCapture
	}
	capture.Note = note
	return nil
}

func (s *Session) in(states ...State) bool {
	return lo.Contains(states, s.state)
}

func validateImage(contentType string, size int, maxBytes int64) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrUnsupportedType
	}
	mediaType = strings.ToLower(mediaType)
	if !lo.Contains(allowedTypes, mediaType) {
		return "", ErrUnsupportedType
	}
	if size == 0 {
		return "", fmt.Errorf("%w: empty image", ErrUnsupportedType)
	}
	if int64(size) > maxBytes {
		return "", ErrImageTooLarge
	}
	return mediaType, nil
}
