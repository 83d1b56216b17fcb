package httpserver

import (
	"errors"
	"io"
	"log"
	"net/http"

	"parra-checkout/internal/payment"
	"parra-checkout/internal/service/fulfillment"

	"github.com/gin-gonic/gin"
)

// webhookHandler feeds raw deliveries to the fulfillment processor.
// 400 means "stop redelivering" (forged or malformed); 500 means "try
// again" and leans on the gateway's own retry policy.
func webhookHandler(processor FulfillmentProcessor, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil || len(payload) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
			return
		}
		sig := c.GetHeader(payment.SignatureHeader)

		result, err := processor.HandleEvent(c.Request.Context(), payload, sig)
		if err != nil {
			if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, fulfillment.ErrBadEvent) {
				logger.Printf("webhook: rejected delivery: %v", err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
				return
			}
			logger.Printf("webhook: processing failed, expecting redelivery: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}

		resp := gin.H{"received": true}
		if result.OrderID != "" {
			resp["orderId"] = result.OrderID
		}
		if result.Outcome == fulfillment.OutcomeDuplicate {
			resp["alreadyProcessed"] = true
		}
		c.JSON(http.StatusOK, resp)
	}
}
