package models

import (
	"fmt"
	"time"
)

// Per-seat availability statuses.
const (
	SeatAvailable     = "AVAILABLE"
	SeatBookedByOther = "BOOKED_BY_OTHER"
	SeatHeldByOther   = "HELD_BY_OTHER"
	SeatNotFound      = "NOT_FOUND"
)

// SeatAvailability is the tagged per-seat result of an availability check.
// ExpiresInSec is set only for HELD_BY_OTHER.
type SeatAvailability struct {
	SeatID       string `json:"seat_id"`
	Status       string `json:"status"`
	ExpiresInSec int64  `json:"expires_in_sec,omitempty"`
}

// AvailabilityReport covers one requested seat set. Available is true iff
// every requested seat is AVAILABLE.
type AvailabilityReport struct {
	ShowID    int64              `json:"show_id"`
	Available bool               `json:"available"`
	Seats     []SeatAvailability `json:"seats"`
}

// CheckAvailabilityRequest asks whether a seat set is bookable now.
type CheckAvailabilityRequest struct {
	ShowID  int64    `json:"show_id" binding:"required"`
	SeatIDs []string `json:"seat_ids" binding:"required"`
}

// CreateReservationRequest places a short-lived hold on a seat set.
type CreateReservationRequest struct {
	ShowID     int64    `json:"show_id" binding:"required"`
	SeatIDs    []string `json:"seat_ids" binding:"required"`
	TTLMinutes int      `json:"ttl_minutes,omitempty"`
}

// ReservationResponse is the reservation as seen by the API caller.
type ReservationResponse struct {
	ID               string    `json:"id"`
	ShowID           int64     `json:"show_id"`
	SeatIDs          []string  `json:"seat_ids"`
	ExpiresAt        time.Time `json:"expires_at"`
	TimeRemainingSec int64     `json:"time_remaining_sec"`
}

// ExtendReservationRequest moves a reservation's expiry forward.
type ExtendReservationRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	Minutes       int    `json:"minutes" binding:"required"`
}

// CancelReservationRequest releases a hold. Idempotent.
type CancelReservationRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
}

// SeatAssignment pairs a seat with the customer it is being bought for.
type SeatAssignment struct {
	SeatID       string `json:"seat_id"`
	CustomerName string `json:"customer_name"`
	CustomerAge  int    `json:"customer_age"`
	Gender       string `json:"gender"`
}

// Contact is the purchaser's contact details.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateBookingRequest converts a seat set (held or not) into a booking.
type CreateBookingRequest struct {
	ShowID  int64            `json:"show_id" binding:"required"`
	Seats   []SeatAssignment `json:"seats" binding:"required"`
	Contact Contact          `json:"contact"`
}

// BookingConfirmation is returned on a successful booking.
type BookingConfirmation struct {
	BookingID   int64     `json:"booking_id"`
	ShowID      int64     `json:"show_id"`
	Status      string    `json:"status"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// CancelBookingRequest cancels a booking owned by the calling user.
type CancelBookingRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Reason    string `json:"reason,omitempty"`
}

// BookingResponse is a booking as seen by the API caller.
type BookingResponse struct {
	ID          int64     `json:"id"`
	ShowID      int64     `json:"show_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// SeatPriceRequest sums current prices for a seat set.
type SeatPriceRequest struct {
	ShowID  int64    `json:"show_id" binding:"required"`
	SeatIDs []string `json:"seat_ids" binding:"required"`
}

// SeatPriceResponse carries the sum as a decimal string.
type SeatPriceResponse struct {
	ShowID int64  `json:"show_id"`
	Total  string `json:"total"`
}

// SeatRowLayout describes one row of the screen layout used to bulk-create
// seats at show-creation time.
type SeatRowLayout struct {
	Row        int    `json:"row" binding:"required"`
	Columns    int    `json:"columns" binding:"required"`
	SeatType   string `json:"seat_type"`
	PriceCents int64  `json:"price_cents"`
}

// CreateShowRequest schedules a show and creates its seat inventory.
type CreateShowRequest struct {
	Title    string          `json:"title" binding:"required"`
	StartsAt time.Time       `json:"starts_at" binding:"required"`
	Layout   []SeatRowLayout `json:"layout" binding:"required"`
}

// CreateShowResponse reports the new show id and seat count.
type CreateShowResponse struct {
	ID         int64 `json:"id"`
	TotalSeats int   `json:"total_seats"`
}

// ListSeatsResponseItem is one seat in the per-show listing.
type ListSeatsResponseItem struct {
	ID     string `json:"id"`
	SeatNo string `json:"seat_no"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Status string `json:"status"`
	Price  string `json:"price"`
}

// ListSeatsResponse is the per-show seat listing.
type ListSeatsResponse []ListSeatsResponseItem

// FormatCents renders integer cents as a decimal string for the API.
func FormatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100.0)
}
