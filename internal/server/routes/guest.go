package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shyamsivadas/event-lens/internal/app/ports"
	appservices "github.com/shyamsivadas/event-lens/internal/app/services"
	"github.com/shyamsivadas/event-lens/internal/observability"
)

// GuestRoutes serves the anonymous guest upload pipeline.
type GuestRoutes struct {
	lookup  *appservices.LookupService
	issuer  *appservices.IssuerService
	confirm *appservices.ConfirmationService
}

// NewGuestRoutes constructs guest routes.
func NewGuestRoutes(lookup *appservices.LookupService, issuer *appservices.IssuerService, confirm *appservices.ConfirmationService) *GuestRoutes {
	return &GuestRoutes{lookup: lookup, issuer: issuer, confirm: confirm}
}

// RegisterRoutes registers guest endpoints.
func (g *GuestRoutes) RegisterRoutes(s *echo.Echo) {
	guest := s.Group("/guest/:share_token")

	guest.GET("", g.handleEvent)
	guest.GET("/limit", g.handleLimit)
	guest.POST("/upload-ticket", g.handleUploadTicket)
	guest.POST("/confirm-upload", g.handleConfirmUpload)
}

type eventResponse struct {
	EventID           string `json:"event_id"`
	ShareToken        string `json:"share_token"`
	Name              string `json:"name"`
	Date              string `json:"date,omitempty"`
	LogoURL           string `json:"logo_url,omitempty"`
	FilterType        string `json:"filter_type"`
	MaxPhotosPerGuest int    `json:"max_photos_per_guest"`
}

type limitResponse struct {
	Used      int `json:"used"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

type uploadTicketRequest struct {
	EventID     string `json:"event_id"`
	DeviceID    string `json:"device_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type uploadTicketResponse struct {
	ObjectKey string            `json:"object_key"`
	WriteURL  string            `json:"write_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type confirmUploadRequest struct {
	DeviceID       string `json:"device_id"`
	ObjectKey      string `json:"object_key"`
	IdempotencyKey string `json:"idempotency_key"`
	Filename       string `json:"filename"`
	Note           string `json:"note"`
}

type confirmUploadResponse struct {
	PhotoID    string    `json:"photo_id"`
	EventID    string    `json:"event_id"`
	ObjectKey  string    `json:"object_key"`
	Filename   string    `json:"filename"`
	Note       string    `json:"note"`
	UploadedAt time.Time `json:"uploaded_at"`
	Replayed   bool      `json:"replayed"`
	limitResponse
}

func (g *GuestRoutes) resolve(c echo.Context) (ports.Event, error) {
	return g.lookup.Resolve(c.Request().Context(), c.Param("share_token"))
}

func (g *GuestRoutes) handleEvent(c echo.Context) error {
	event, err := g.resolve(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, eventResponse{
		EventID:           event.ID,
		ShareToken:        event.ShareToken,
		Name:              event.Name,
		Date:              event.Date,
		LogoURL:           event.LogoURL,
		FilterType:        event.FilterType,
		MaxPhotosPerGuest: event.MaxPhotosPerGuest,
	})
}

func (g *GuestRoutes) handleLimit(c echo.Context) error {
	event, err := g.resolve(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	quota, err := g.lookup.QuotaFor(c.Request().Context(), event, c.QueryParam("device_id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toLimitResponse(quota))
}

func (g *GuestRoutes) handleUploadTicket(c echo.Context) error {
	event, err := g.resolve(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req uploadTicketRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json body")
	}
	if eventID := strings.TrimSpace(req.EventID); eventID != "" && eventID != event.ID {
		return badRequest(c, "event_id does not match share token")
	}

	ctx := observability.WithQuotaKey(c.Request().Context(), event.ID, req.DeviceID)
	ticket, err := g.issuer.Issue(ctx, appservices.IssueCommand{
		EventID:     event.ID,
		DeviceID:    req.DeviceID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, uploadTicketResponse{
		ObjectKey: ticket.ObjectKey,
		WriteURL:  ticket.WriteURL,
		Method:    ticket.Method,
		Headers:   ticket.Headers,
		ExpiresAt: ticket.ExpiresAt,
	})
}

func (g *GuestRoutes) handleConfirmUpload(c echo.Context) error {
	event, err := g.resolve(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	var req confirmUploadRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json body")
	}

	ctx := observability.WithQuotaKey(c.Request().Context(), event.ID, req.DeviceID)
	result, err := g.confirm.Confirm(ctx, appservices.ConfirmCommand{
		EventID:        event.ID,
		DeviceID:       req.DeviceID,
		ObjectKey:      req.ObjectKey,
		IdempotencyKey: req.IdempotencyKey,
		Filename:       req.Filename,
		Note:           req.Note,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, confirmUploadResponse{
		PhotoID:       result.Photo.ID,
		EventID:       result.Photo.EventID,
		ObjectKey:     result.Photo.ObjectKey,
		Filename:      result.Photo.Filename,
		Note:          result.Photo.Note,
		UploadedAt:    result.Photo.UploadedAt,
		Replayed:      result.Replayed,
		limitResponse: toLimitResponse(result.Quota),
	})
}

func toLimitResponse(quota appservices.Quota) limitResponse {
	return limitResponse{Used: quota.Used, Max: quota.Max, Remaining: quota.Remaining}
}
