package httpserver

import (
	"errors"
	"net/http"

	"parra-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps domain errors onto the API contract. A stock
// rejection is a 409 carrying the current available count so the client
// can show the shortfall, not a generic failure.
func writeServiceError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"available": stockErr.Available,
		})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func sessionFromHeader(c *gin.Context) (string, bool) {
	session := c.GetHeader("X-Cart-Session")
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Cart-Session header required"})
		return "", false
	}
	return session, true
}
