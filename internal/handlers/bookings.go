package handlers

import (
	"net/http"
	"strconv"

	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking converts a seat set into a confirmed booking for the calling
// user. Seats the user already holds count as claimable; everything else is
// revalidated under row locks inside the service.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id and seats are required"})
		return
	}

	ctx := c.Request.Context()
	confirmation, err := h.services.Bookings.Create(ctx, req.ShowID, userID(c), req.Seats, req.Contact)
	if err != nil {
		h.handleServiceError(c, err, "failed to create booking")
		return
	}

	h.invalidateSeatMap(ctx, req.ShowID)
	c.JSON(http.StatusCreated, confirmation)
}

// CancelBooking cancels a booking owned by the calling user and frees its
// seats, subject to the pre-showtime cutoff.
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_id is required"})
		return
	}

	ctx := c.Request.Context()
	booking, err := h.services.Bookings.Cancel(ctx, req.BookingID, userID(c), req.Reason)
	if err != nil {
		h.handleServiceError(c, err, "failed to cancel booking")
		return
	}

	h.invalidateSeatMap(ctx, booking.ShowID)
	c.JSON(http.StatusOK, models.BookingResponse{
		ID:          booking.ID,
		ShowID:      booking.ShowID,
		Status:      booking.Status,
		TotalAmount: models.FormatCents(booking.TotalAmountCents),
		CreatedAt:   booking.CreatedAt,
	})
}

// GetBooking returns one of the calling user's bookings.
func (h *Handlers) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.services.Bookings.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		h.handleServiceError(c, err, "failed to load booking")
		return
	}

	c.JSON(http.StatusOK, models.BookingResponse{
		ID:          booking.ID,
		ShowID:      booking.ShowID,
		Status:      booking.Status,
		TotalAmount: models.FormatCents(booking.TotalAmountCents),
		CreatedAt:   booking.CreatedAt,
	})
}

// GetSeatPrice sums the current prices of a seat set without claiming it.
func (h *Handlers) GetSeatPrice(c *gin.Context) {
	var req models.SeatPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id and seat_ids are required"})
		return
	}

	total, err := h.services.Bookings.SeatPrice(c.Request.Context(), req.ShowID, req.SeatIDs)
	if err != nil {
		h.handleServiceError(c, err, "failed to price seats")
		return
	}

	c.JSON(http.StatusOK, models.SeatPriceResponse{
		ShowID: req.ShowID,
		Total:  models.FormatCents(total),
	})
}
