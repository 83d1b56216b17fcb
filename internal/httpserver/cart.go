package httpserver

import (
	"net/http"

	"parra-checkout/internal/domain"
	cartsvc "parra-checkout/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type reserveRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	SessionID string  `json:"sessionId" binding:"required"`
}

func (r reserveRequest) ref() domain.ItemRef {
	return domain.ItemRef{ProductID: r.ProductID, VariantID: r.VariantID}
}

func reserveHandler(svc ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId, quantity and sessionId are required"})
			return
		}
		if err := svc.Reserve(c.Request.Context(), req.ref(), req.Quantity); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "quantity": req.Quantity})
	}
}

func releaseHandler(svc ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId, quantity and sessionId are required"})
			return
		}
		if err := svc.Release(c.Request.Context(), req.ref(), req.Quantity); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

type lineRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
}

func (r lineRequest) ref() domain.ItemRef {
	return domain.ItemRef{ProductID: r.ProductID, VariantID: r.VariantID}
}

func linesResponse(lines []domain.CartLine) gin.H {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return gin.H{"lineItems": lines}
}

func cartGetHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromHeader(c)
		if !ok {
			return
		}
		lines, err := svc.Lines(c.Request.Context(), session)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, linesResponse(lines))
	}
}

func cartAddLineHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromHeader(c)
		if !ok {
			return
		}
		var req lineRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId and a positive quantity are required"})
			return
		}
		lines, err := svc.AddLine(c.Request.Context(), session, cartsvc.AddLineInput{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, linesResponse(lines))
	}
}

func cartUpdateLineHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromHeader(c)
		if !ok {
			return
		}
		var req lineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
			return
		}
		lines, err := svc.UpdateQuantity(c.Request.Context(), session, req.ref(), req.Quantity)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, linesResponse(lines))
	}
}

func cartRemoveLineHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromHeader(c)
		if !ok {
			return
		}
		var req lineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
			return
		}
		lines, err := svc.RemoveLine(c.Request.Context(), session, req.ref())
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, linesResponse(lines))
	}
}

func cartClearHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromHeader(c)
		if !ok {
			return
		}
		if err := svc.Clear(c.Request.Context(), session); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
