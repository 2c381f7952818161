package repository

import (
	"context"
	"time"

	"cinebook/internal/models"
)

// TxRunner scopes a function to one storage transaction. Store methods
// called with the context passed to fn join that transaction; on error the
// whole transaction rolls back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ShowStore persists scheduled shows.
type ShowStore interface {
	Create(ctx context.Context, show *models.Show) error
	GetByID(ctx context.Context, id int64) (*models.Show, error)
}

// SeatStore is the durable seat inventory. Mutating methods are conditional
// writes: a racing writer whose precondition no longer holds gets an error,
// never a silent overwrite.
type SeatStore interface {
	// CreateForShow bulk-inserts seats from a screen layout and updates the
	// show's seat count. Returns the number of seats created.
	CreateForShow(ctx context.Context, showID int64, layout []models.SeatRowLayout) (int, error)

	// Get returns bookingerr.ErrNotFound for an unknown id.
	Get(ctx context.Context, seatID string) (*models.Seat, error)

	// GetMany silently omits unknown ids; callers diff against the request.
	GetMany(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error)

	// ListByShow returns every seat of a show ordered by row and column.
	ListByShow(ctx context.Context, showID int64) ([]models.Seat, error)

	// GetManyForUpdate reads the seats under an exclusive row lock without
	// waiting. Must run inside WithTx. Returns bookingerr.ErrLockTimeout
	// when another transaction holds any of the rows.
	GetManyForUpdate(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error)

	// SetHeld claims every seat in the batch or none of them, judging hold
	// expiry against the caller-supplied now. Fails with
	// bookingerr.ErrSeatUnavailable if any seat is not currently free
	// (occupied with a live hold, or already booked).
	SetHeld(ctx context.Context, seatIDs []string, now, expiresAt time.Time) error

	// UpdateHeldUntil moves held_until from currentExpiry to newExpiry. The
	// write is conditional on held_until still equalling currentExpiry on
	// every seat; if any seat has been reclaimed by a different hold it
	// fails with bookingerr.ErrSeatUnavailable and writes nothing.
	UpdateHeldUntil(ctx context.Context, seatIDs []string, currentExpiry, newExpiry time.Time) error

	// SetBooked flips the seats to occupied with the booking id, clearing
	// any hold fields.
	SetBooked(ctx context.Context, seatIDs []string, bookingID int64) error

	// ReleaseUnbooked releases only seats whose booking_id is still null
	// and whose held_until is at or before heldBefore. The booking guard
	// makes a sweep racing a successful booking a no-op for that seat; the
	// held_until guard keeps a stale reservation's release from clearing a
	// hold another user placed after it lapsed. Callers pass the expiry of
	// the hold they are releasing. Returns the ids actually released.
	ReleaseUnbooked(ctx context.Context, seatIDs []string, heldBefore time.Time) ([]string, error)

	// ReleaseByBooking releases every seat attached to the booking.
	// Returns the ids released; idempotent.
	ReleaseByBooking(ctx context.Context, bookingID int64) ([]string, error)
}

// ReservationStore persists seat holds.
type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	// Delete is idempotent; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	ListExpired(ctx context.Context, now time.Time) ([]models.Reservation, error)
	// ListActiveByUserAndShow returns the user's live holds for a show, so
	// the booking coordinator can tell a self-held seat from one held by
	// somebody else.
	ListActiveByUserAndShow(ctx context.Context, userID, showID int64, now time.Time) ([]models.Reservation, error)
}

// BookingStore persists bookings and their per-seat lines.
type BookingStore interface {
	// Create inserts the booking row and all lines; must be called inside
	// WithTx together with SeatStore.SetBooked so the pairing is atomic.
	Create(ctx context.Context, booking *models.Booking, lines []models.BookingLine) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetLines(ctx context.Context, bookingID int64) ([]models.BookingLine, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	// ListCancelledWithOccupiedSeats finds bookings whose status is
	// CANCELLED but whose seats still reference them, for crash recovery.
	ListCancelledWithOccupiedSeats(ctx context.Context) ([]int64, error)
}

// Stores bundles every store plus the transaction runner for injection into
// the service layer.
type Stores struct {
	Tx           TxRunner
	Shows        ShowStore
	Seats        SeatStore
	Reservations ReservationStore
	Bookings     BookingStore
}
