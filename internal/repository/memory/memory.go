// Package memory implements the repository ports on plain maps guarded by a
// mutex. Row locks become per-seat try-locks so the fail-fast contract of
// the booking path is preserved. It backs the service and handler tests and
// doubles as a storage mode for local development.
package memory

import (
	"context"
	"sync"

	"cinebook/internal/clock"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

type store struct {
	mu  sync.Mutex
	clk clock.Clock

	shows        map[int64]*models.Show
	seats        map[string]*models.Seat
	reservations map[string]*models.Reservation
	bookings     map[int64]*models.Booking
	lines        map[int64][]models.BookingLine

	nextShowID    int64
	nextBookingID int64

	// lockedBy maps a seat id to the transaction currently holding its row
	// lock. Guarded by mu.
	lockedBy map[string]*memTx
}

// memTx tracks the row locks and the undo journal of one open transaction.
type memTx struct {
	locked []string
	undo   []func()
}

type txKeyType struct{}

var txKey txKeyType

func txFromContext(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey).(*memTx)
	return tx
}

// NewStores returns memory-backed stores sharing one state.
func NewStores(clk clock.Clock) *repository.Stores {
	s := &store{
		clk:          clk,
		shows:        make(map[int64]*models.Show),
		seats:        make(map[string]*models.Seat),
		reservations: make(map[string]*models.Reservation),
		bookings:     make(map[int64]*models.Booking),
		lines:        make(map[int64][]models.BookingLine),
		lockedBy:     make(map[string]*memTx),
	}
	return &repository.Stores{
		Tx:           &txRunner{s: s},
		Shows:        &showStore{s},
		Seats:        &seatStore{s},
		Reservations: &reservationStore{s},
		Bookings:     &bookingStore{s},
	}
}

type txRunner struct {
	s *store
}

func (r *txRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{}
	err := fn(context.WithValue(ctx, txKey, tx))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err != nil {
		// Roll back in reverse order.
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}
	for _, id := range tx.locked {
		if r.s.lockedBy[id] == tx {
			delete(r.s.lockedBy, id)
		}
	}
	return err
}

// journal records an undo step when running inside a transaction. Callers
// must hold s.mu.
func (s *store) journal(ctx context.Context, undo func()) {
	if tx := txFromContext(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}

// seatLockedByOther reports whether another open transaction holds the
// seat's row lock. Callers must hold s.mu.
func (s *store) seatLockedByOther(ctx context.Context, seatID string) bool {
	holder, ok := s.lockedBy[seatID]
	return ok && holder != txFromContext(ctx)
}

func copySeat(seat *models.Seat) models.Seat {
	out := *seat
	if seat.HeldUntil != nil {
		t := *seat.HeldUntil
		out.HeldUntil = &t
	}
	if seat.BookingID != nil {
		id := *seat.BookingID
		out.BookingID = &id
	}
	return out
}
