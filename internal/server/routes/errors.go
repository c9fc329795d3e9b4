package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	appservices "github.com/shyamsivadas/event-lens/internal/app/services"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeServiceError(c echo.Context, err error) error {
	kind := appservices.ClassifyError(err)
	status := http.StatusInternalServerError
	switch kind {
	case appservices.ErrorEventNotFound, appservices.ErrorObjectNotFound:
		status = http.StatusNotFound
	case appservices.ErrorQuotaExceeded, appservices.ErrorTicketConsumed:
		status = http.StatusConflict
	case appservices.ErrorInvalidInput:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "guest pipeline request failed", "route", c.Path(), "error", err)
		return c.JSON(status, errorResponse{Error: "internal", Message: "internal error"})
	}
	return c.JSON(status, errorResponse{Error: string(kind), Message: err.Error()})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: string(appservices.ErrorInvalidInput), Message: message})
}
