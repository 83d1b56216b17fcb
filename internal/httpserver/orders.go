package httpserver

import (
	"net/http"

	"parra-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

// ordersHandler lists orders for an email (query param) or, failing
// that, the cart session header.
func ordersHandler(repo OrderLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			orders []domain.Order
			err    error
		)
		if email := c.Query("email"); email != "" {
			orders, err = repo.ListByEmail(c.Request.Context(), email)
		} else if session := c.GetHeader("X-Cart-Session"); session != "" {
			orders, err = repo.ListBySession(c.Request.Context(), session)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email query param or X-Cart-Session header required"})
			return
		}
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}
