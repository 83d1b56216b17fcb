package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type mergeRequest struct {
	GuestSessionID string `json:"guestSessionId" binding:"required"`
	UserSessionID  string `json:"userSessionId" binding:"required"`
}

// mergeHandler is called once right after login to move the guest cart
// (and its stock holds) onto the authenticated session.
func mergeHandler(svc MergeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mergeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guestSessionId and userSessionId are required"})
			return
		}
		count, err := svc.Merge(c.Request.Context(), req.GuestSessionID, req.UserSessionID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"merged": true, "count": count})
	}
}
