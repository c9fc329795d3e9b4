package routes

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/shyamsivadas/event-lens/internal/adapters/blob/localfs"
)

// BlobRoutes accepts signed PUTs for the local blob backend.
type BlobRoutes struct {
	store *localfs.Store
}

// NewBlobRoutes constructs blob write routes.
func NewBlobRoutes(store *localfs.Store) *BlobRoutes {
	return &BlobRoutes{store: store}
}

// RegisterRoutes registers the signed write endpoint.
func (b *BlobRoutes) RegisterRoutes(s *echo.Echo) {
	s.PUT(localfs.RoutePrefix+"*", b.handlePut)
}

func (b *BlobRoutes) handlePut(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	req := c.Request()
	if err := b.store.Verify(key, req.Header.Get(echo.HeaderContentType), c.QueryParams()); err != nil {
		switch {
		case errors.Is(err, localfs.ErrContentTypeMismatch):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "content_type_mismatch", Message: err.Error()})
		default:
			return c.JSON(http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()})
		}
	}

	info, err := b.store.Write(req.Context(), key, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, localfs.ErrTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "too_large", Message: err.Error()})
		case errors.Is(err, localfs.ErrAlreadyExists):
			return c.JSON(http.StatusConflict, errorResponse{Error: "already_exists", Message: err.Error()})
		default:
			return err
		}
	}
	c.Response().Header().Set("ETag", `"`+info.Key+`"`)
	return c.NoContent(http.StatusOK)
}
