package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/cache"
	"cinebook/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
	cache    *cache.Client
}

func NewHandlers(services *service.Services, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		services: services,
		cache:    cacheClient,
	}
}

// invalidateSeatMap drops the cached seat map after any mutation that flips
// seat state. Cache errors are logged and swallowed; the store is the truth.
func (h *Handlers) invalidateSeatMap(ctx context.Context, showID int64) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateShow(ctx, showID); err != nil {
		slog.Warn("failed to invalidate seat map cache", "show_id", showID, "error", err)
	}
}

func userID(c *gin.Context) int64 {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// handleServiceError maps the error taxonomy onto HTTP statuses. Conflict
// and lock-timeout both come back 409 but carry distinct codes so clients
// can word the retry hint differently.
func (h *Handlers) handleServiceError(c *gin.Context, err error, msg string) {
	var ve *bookingerr.ValidationError
	var ce *bookingerr.ConflictError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{
			"error": "seats unavailable",
			"code":  "seat_conflict",
			"seats": conflictSeats(ce),
		})
	case errors.Is(err, bookingerr.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{
			"error": "seats are being booked by another user; try again",
			"code":  "lock_timeout",
		})
	case errors.Is(err, bookingerr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, bookingerr.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, bookingerr.ErrNotCancellable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "booking can no longer be cancelled"})
	case errors.Is(err, bookingerr.ErrReservationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "reservation has expired"})
	case errors.Is(err, bookingerr.ErrExtensionCapExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reservation extension cap exceeded"})
	default:
		slog.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

type conflictSeat struct {
	SeatID       string `json:"seat_id"`
	Reason       string `json:"reason"`
	ExpiresInSec int64  `json:"expires_in_sec,omitempty"`
}

func conflictSeats(ce *bookingerr.ConflictError) []conflictSeat {
	out := make([]conflictSeat, len(ce.Seats))
	for i, s := range ce.Seats {
		out[i] = conflictSeat{
			SeatID:       s.SeatID,
			Reason:       s.Reason,
			ExpiresInSec: int64(s.ExpiresIn / time.Second),
		}
	}
	return out
}
