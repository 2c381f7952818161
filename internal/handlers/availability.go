package handlers

import (
	"net/http"

	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// CheckAvailability reports the tagged per-seat status for a requested seat
// set. It reads without locking, so the answer is advisory; the booking and
// reservation paths re-check under locks.
func (h *Handlers) CheckAvailability(c *gin.Context) {
	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id and seat_ids are required"})
		return
	}

	report, err := h.services.Availability.Check(c.Request.Context(), req.ShowID, req.SeatIDs)
	if err != nil {
		h.handleServiceError(c, err, "failed to check availability")
		return
	}

	c.JSON(http.StatusOK, report)
}
