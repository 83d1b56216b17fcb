package httpserver

import (
	"errors"
	"net/http"

	checkoutsvc "parra-checkout/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

type checkoutSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Email     string `json:"email" binding:"required"`
}

func checkoutSessionHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and email are required"})
			return
		}
		session, err := svc.CreateSession(c.Request.Context(), checkoutsvc.CreateSessionInput{
			SessionID: req.SessionID,
			Email:     req.Email,
			Origin:    c.GetHeader("Origin"),
		})
		if err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
				return
			}
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reference": session.Reference, "url": session.URL})
	}
}
