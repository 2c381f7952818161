package models

import (
	"time"
)

// Show is one scheduled performance. Seats are created in bulk when the
// show is scheduled and never shared across performances.
type Show struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	TotalSeats int       `json:"total_seats" db:"total_seats"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Seat is one physical seat for one show. BookingID != nil implies
// Occupied == true and HeldUntil == nil. A seat with Occupied == true and a
// HeldUntil in the past is logically free (lazy expiry); readers must check
// HeldUntil against the current time, not trust the stored flag.
type Seat struct {
	ID         string     `json:"id" db:"id"`
	ShowID     int64      `json:"show_id" db:"show_id"`
	SeatNo     string     `json:"seat_no" db:"seat_no"`
	Row        int        `json:"row" db:"row_number"`
	Column     int        `json:"column" db:"col_number"`
	SeatType   string     `json:"seat_type" db:"seat_type"`
	PriceCents int64      `json:"price_cents" db:"price_cents"`
	Occupied   bool       `json:"occupied" db:"occupied"`
	HeldUntil  *time.Time `json:"held_until" db:"held_until"`
	BookingID  *int64     `json:"booking_id" db:"booking_id"`
	Version    int64      `json:"version" db:"version"`
}

// FreeAt reports whether the seat is claimable at the given instant,
// treating an expired hold as free even before the sweeper clears it.
func (s *Seat) FreeAt(now time.Time) bool {
	if s.BookingID != nil {
		return false
	}
	if !s.Occupied {
		return true
	}
	return s.HeldUntil != nil && !s.HeldUntil.After(now)
}

// Reservation is a short-lived claim by one user over a set of seats. Every
// seat in a live reservation carries HeldUntil == ExpiresAt; extend moves
// both in lockstep.
type Reservation struct {
	ID        string    `json:"id" db:"id"`
	ShowID    int64     `json:"show_id" db:"show_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	SeatIDs   []string  `json:"seat_ids" db:"seat_ids"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Booking statuses. Cancellation flips seats back to free but keeps the row.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
	BookingRefunded  = "REFUNDED"
)

// Booking is the permanent record of a completed sale.
type Booking struct {
	ID               int64     `json:"id" db:"id"`
	ShowID           int64     `json:"show_id" db:"show_id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Status           string    `json:"status" db:"status"`
	TotalAmountCents int64     `json:"total_amount_cents" db:"total_amount_cents"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Cancellable reports whether the booking status still admits cancellation.
func (b *Booking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// BookingLine is one seat within a booking, with the customer it was sold
// to and the price read under the booking lock.
type BookingLine struct {
	ID                  int64  `json:"id" db:"id"`
	BookingID           int64  `json:"booking_id" db:"booking_id"`
	SeatID              string `json:"seat_id" db:"seat_id"`
	CustomerName        string `json:"customer_name" db:"customer_name"`
	CustomerAge         int    `json:"customer_age" db:"customer_age"`
	Gender              string `json:"gender" db:"gender"`
	PriceCentsAtBooking int64  `json:"price_cents_at_booking" db:"price_cents_at_booking"`
}
