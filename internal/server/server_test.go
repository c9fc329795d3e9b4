package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(e *echo.Echo) {
	e.GET("/guest/:share_token", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("share_token"))
	})
	e.POST("/echo", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(body))
	})
}

func newTestServer(opts Options) *Server {
	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	srv.RegisterRouter(pingRoutes{})
	return srv
}

func TestServerRateLimitsGuestRoutes(t *testing.T) {
	srv := newTestServer(Options{RateLimit: 1})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/guest/abcd1234", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK {
		t.Fatalf("first request status=%d", codes[0])
	}
	if codes[len(codes)-1] != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %v", codes)
	}
}

func TestServerEnforcesBodyLimit(t *testing.T) {
	srv := newTestServer(Options{BodyLimitBytes: 1})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 200*1024)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d want=%d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestServerAnswersCORSPreflight(t *testing.T) {
	srv := newTestServer(Options{CORSOrigins: []string{" https://guests.example "}})

	req := httptest.NewRequest(http.MethodOptions, "/guest/abcd1234", nil)
	req.Header.Set(echo.HeaderOrigin, "https://guests.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://guests.example" {
		t.Fatalf("allow origin=%q", got)
	}
}
