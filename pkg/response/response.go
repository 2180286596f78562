package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salonflow/platform/pkg/domain"
)

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Paginated writes a 200 with the payload and paging metadata.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Error maps a domain error onto its HTTP status. Unknown errors become a 500
// with a generic body; the message text is never leaked for those.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(de.Err, domain.ErrValidation), errors.Is(de.Err, domain.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(de.Err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(de.Err, domain.ErrConflict), errors.Is(de.Err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(de.Err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(de.Err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(de.Err, domain.ErrUnavailable):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": de.Message})
}
