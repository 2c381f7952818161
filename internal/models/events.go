package models

import "time"

// NATS subjects for lifecycle events.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationExtended  = "reservation.extended"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventSeatsReleased        = "seats.released"
)

// ReservationCreatedEvent is published after a hold is placed.
type ReservationCreatedEvent struct {
	ReservationID string    `json:"reservation_id"`
	ShowID        int64     `json:"show_id"`
	UserID        int64     `json:"user_id"`
	SeatIDs       []string  `json:"seat_ids"`
	ExpiresAt     time.Time `json:"expires_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationExpiredEvent is published by the sweeper for each swept hold.
type ReservationExpiredEvent struct {
	ReservationID string    `json:"reservation_id"`
	ShowID        int64     `json:"show_id"`
	SeatsReleased int       `json:"seats_released"`
	Timestamp     time.Time `json:"timestamp"`
}

// BookingCreatedEvent is published after a booking commits.
type BookingCreatedEvent struct {
	BookingID   int64     `json:"booking_id"`
	ShowID      int64     `json:"show_id"`
	UserID      int64     `json:"user_id"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalAmount int64     `json:"total_amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after a cancellation releases seats.
type BookingCancelledEvent struct {
	BookingID int64     `json:"booking_id"`
	ShowID    int64     `json:"show_id"`
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatsReleasedEvent is published whenever seats return to the free pool.
type SeatsReleasedEvent struct {
	ShowID    int64     `json:"show_id"`
	SeatIDs   []string  `json:"seat_ids"`
	Cause     string    `json:"cause"`
	Timestamp time.Time `json:"timestamp"`
}
