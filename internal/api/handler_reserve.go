package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"laundry-reserve-backend/internal/mw"
	"laundry-reserve-backend/internal/store"
)

// Reserve handles the POST /api/appliances/:id/reserve request.
func (h *Handler) Reserve(c *gin.Context) {
	applianceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid appliance ID"})
		return
	}

	userID, ok := mw.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	reservation, err := h.engine.Reserve(c.Request.Context(), applianceID, userID)
	if err != nil {
		var dl *store.DailyLimitError
		switch {
		case errors.Is(err, store.ErrApplianceNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "appliance does not exist"})
		case errors.Is(err, store.ErrApplianceInUse):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "This appliance is already in use!"})
		case errors.As(err, &dl):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": fmt.Sprintf("You can only reserve one %s per day!", dl.Kind),
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve appliance"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s %d reserved for %s!",
			titleKind(reservation.Kind), applianceID, durationLabel(h.engine.Duration())),
		"reservation": gin.H{
			"applianceId":   reservation.ApplianceID,
			"userId":        reservation.UserID,
			"kind":          reservation.Kind,
			"reservedAt":    reservation.ReservedAt,
			"reservedUntil": reservation.ReservedUntil,
		},
	})
}

func titleKind(kind string) string {
	if kind == "" {
		return kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

func durationLabel(d time.Duration) string {
	if d == time.Hour {
		return "1 hour"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
