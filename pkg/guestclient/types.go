package guestclient

import "time"

type Event struct {
	EventID           string `json:"event_id"`
	ShareToken        string `json:"share_token"`
	Name              string `json:"name"`
	Date              string `json:"date,omitempty"`
	LogoURL           string `json:"logo_url,omitempty"`
	FilterType        string `json:"filter_type"`
	MaxPhotosPerGuest int    `json:"max_photos_per_guest"`
}

type Quota struct {
	Used      int `json:"used"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

type TicketRequest struct {
	EventID     string `json:"event_id"`
	DeviceID    string `json:"device_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type Ticket struct {
	ObjectKey string            `json:"object_key"`
	WriteURL  string            `json:"write_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type ConfirmRequest struct {
	DeviceID       string `json:"device_id"`
	ObjectKey      string `json:"object_key"`
	IdempotencyKey string `json:"idempotency_key"`
	Filename       string `json:"filename"`
	Note           string `json:"note"`
}

type Confirmation struct {
	PhotoID    string    `json:"photo_id"`
	EventID    string    `json:"event_id"`
	ObjectKey  string    `json:"object_key"`
	Filename   string    `json:"filename"`
	Note       string    `json:"note"`
	UploadedAt time.Time `json:"uploaded_at"`
	Replayed   bool      `json:"replayed"`
	Quota
}
