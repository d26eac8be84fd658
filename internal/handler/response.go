package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanfix/service-booking/internal/domain"
)

// envelope is the uniform response body shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type paginatedEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}

func respondPaginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// respondError maps domain errors to HTTP status codes. Unknown errors become
// an opaque 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *domain.NotFoundError
		validation   *domain.ValidationError
		transition   *domain.InvalidTransitionError
		unauthorized *domain.UnauthorizedError
		conflict     *domain.ConflictError
		mismatch     *domain.PriceMismatchError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, envelope{Success: false, Error: err.Error()})
	case errors.As(err, &validation), errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, envelope{Success: false, Error: err.Error()})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusForbidden, envelope{Success: false, Error: err.Error()})
	case errors.As(err, &transition), errors.As(err, &conflict):
		c.JSON(http.StatusConflict, envelope{Success: false, Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Error: "internal server error"})
	}
}
