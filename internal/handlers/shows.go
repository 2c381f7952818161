package handlers

import (
	"net/http"
	"strconv"

	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateShow schedules a show and bulk-creates its seat inventory from the
// requested layout.
func (h *Handlers) CreateShow(c *gin.Context) {
	var req models.CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, starts_at and layout are required"})
		return
	}

	resp, err := h.services.Shows.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "failed to create show")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListShowSeats returns the per-show seat map. Responses are cached; every
// seat-state mutation invalidates the show's entry, and hold expiry is
// bounded by the cache TTL.
func (h *Handlers) ListShowSeats(c *gin.Context) {
	showID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid show id"})
		return
	}

	ctx := c.Request.Context()
	if h.cache != nil {
		if raw, err := h.cache.GetSeatMapRaw(ctx, showID); err == nil && raw != nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	seats, err := h.services.Shows.ListSeats(ctx, showID)
	if err != nil {
		h.handleServiceError(c, err, "failed to list seats")
		return
	}

	if h.cache != nil {
		_ = h.cache.SetSeatMap(ctx, showID, seats)
	}

	c.JSON(http.StatusOK, seats)
}
