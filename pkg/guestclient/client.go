// Package guestclient talks to the guest upload API and signed blob write URLs.
package guestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRetries     = 3
	defaultBaseBackoff = 200 * time.Millisecond
)

// Client is safe to copy and to use from multiple goroutines.
type Client struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Retries bounds extra attempts for transient failures. Negative disables retries.
	Retries     int
	BaseBackoff time.Duration
}

func (c Client) ResolveEvent(ctx context.Context, shareToken string) (Event, error) {
	var out Event
	err := c.do(ctx, "resolve event", http.MethodGet, c.guestPath(shareToken, ""), nil, &out)
	return out, err
}

func (c Client) Limit(ctx context.Context, shareToken, deviceID string) (Quota, error) {
	var out Quota
	path := c.guestPath(shareToken, "/limit") + "?device_id=" + url.QueryEscape(deviceID)
	err := c.do(ctx, "fetch limit", http.MethodGet, path, nil, &out)
	return out, err
}

// IssueTicket requests a write authorization for one photo.
func (c Client) IssueTicket(ctx context.Context, shareToken string, req TicketRequest) (Ticket, error) {
	var out Ticket
	err := c.do(ctx, "issue ticket", http.MethodPost, c.guestPath(shareToken, "/upload-ticket"), req, &out)
	return out, err
}

// Confirm records an uploaded photo. Retries reuse req, so the idempotency key stays stable.
func (c Client) Confirm(ctx context.Context, shareToken string, req ConfirmRequest) (Confirmation, error) {
	var out Confirmation
	err := c.do(ctx, "confirm upload", http.MethodPost, c.guestPath(shareToken, "/confirm-upload"), req, &out)
	return out, err
}

// Transfer writes body to the ticket's write URL.
func (c Client) Transfer(ctx context.Context, ticket Ticket, body []byte) error {
	method := ticket.Method
	if method == "" {
		method = http.MethodPut
	}
	return c.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, ticket.WriteURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build transfer request: %w", err)
		}
		for key, value := range ticket.Headers {
			req.Header.Set(key, value)
		}
		req.ContentLength = int64(len(body))

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return &TransientError{Op: "transfer", Err: err}
		}
		defer resp.Body.Close()

		// write-once backends answer 409 when a retried PUT already landed
		if resp.StatusCode == http.StatusConflict {
			return nil
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return statusError("transfer", resp)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

func (c Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		payload = raw
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return fmt.Errorf("%s: base url is required", op)
	}

	return c.withRetry(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return &TransientError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			return statusError(op, resp)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return nil
	})
}

func (c Client) withRetry(ctx context.Context, fn func(context.Context) error) error {
	if c.Retries < 0 {
		return fn(ctx)
	}
	retries := c.Retries
	if retries == 0 {
		retries = defaultRetries
	}
	base := c.BaseBackoff
	if base <= 0 {
		base = defaultBaseBackoff
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.WithJitterPercent(20, retry.NewExponential(base)))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c Client) guestPath(shareToken, suffix string) string {
	return "/guest/" + url.PathEscape(strings.TrimSpace(shareToken)) + suffix
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	if body.Error == "" && body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	apiErr := &APIError{Status: resp.StatusCode, Kind: body.Error, Message: body.Message}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return &TransientError{Op: op, Err: apiErr}
	}
	return apiErr
}
