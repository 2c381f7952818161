package handlers

import (
	"net/http"
	"time"

	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateReservation places a short-lived hold on a seat set. TTL defaults
// when omitted; a TTL beyond the extension cap is rejected up front.
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id and seat_ids are required"})
		return
	}

	ctx := c.Request.Context()
	ttl := time.Duration(req.TTLMinutes) * time.Minute
	res, err := h.services.Reservations.Create(ctx, req.ShowID, req.SeatIDs, userID(c), ttl)
	if err != nil {
		h.handleServiceError(c, err, "failed to create reservation")
		return
	}

	h.invalidateSeatMap(ctx, req.ShowID)
	c.JSON(http.StatusCreated, h.reservationResponse(c, res))
}

// ExtendReservation moves a live hold's expiry forward, capped relative to
// the reservation's creation time.
func (h *Handlers) ExtendReservation(c *gin.Context) {
	var req models.ExtendReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id and minutes are required"})
		return
	}

	res, err := h.services.Reservations.Extend(c.Request.Context(), req.ReservationID, req.Minutes)
	if err != nil {
		h.handleServiceError(c, err, "failed to extend reservation")
		return
	}

	c.JSON(http.StatusOK, h.reservationResponse(c, res))
}

// CancelReservation releases a hold. Cancelling an already-gone reservation
// succeeds, so retried cancels are harmless.
func (h *Handlers) CancelReservation(c *gin.Context) {
	var req models.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id is required"})
		return
	}

	ctx := c.Request.Context()
	res, err := h.services.Reservations.Get(ctx, req.ReservationID)
	if err == nil {
		defer h.invalidateSeatMap(ctx, res.ShowID)
	}

	if err := h.services.Reservations.Cancel(ctx, req.ReservationID); err != nil {
		h.handleServiceError(c, err, "failed to cancel reservation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// GetReservation returns a reservation with its remaining hold time.
func (h *Handlers) GetReservation(c *gin.Context) {
	res, err := h.services.Reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, "failed to load reservation")
		return
	}

	c.JSON(http.StatusOK, h.reservationResponse(c, res))
}

func (h *Handlers) reservationResponse(c *gin.Context, res *models.Reservation) models.ReservationResponse {
	remaining, err := h.services.Reservations.TimeRemaining(c.Request.Context(), res.ID)
	if err != nil {
		remaining = 0
	}
	return models.ReservationResponse{
		ID:               res.ID,
		ShowID:           res.ShowID,
		SeatIDs:          res.SeatIDs,
		ExpiresAt:        res.ExpiresAt,
		TimeRemainingSec: int64(remaining / time.Second),
	}
}
