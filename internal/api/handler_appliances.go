package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAppliances handles the GET /api/appliances request. Every appliance is
// decayed before its status is derived, so an expired reservation is never
// shown as in use.
func (h *Handler) ListAppliances(c *gin.Context) {
	views, err := h.engine.ListViews(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve appliances"})
		return
	}
	c.JSON(http.StatusOK, views)
}
