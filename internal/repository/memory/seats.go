package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/models"

	"github.com/google/uuid"
)

type seatStore struct {
	s *store
}

func (st *seatStore) CreateForShow(ctx context.Context, showID int64, layout []models.SeatRowLayout) (int, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	created := 0
	for _, rowLayout := range layout {
		seatType := rowLayout.SeatType
		if seatType == "" {
			seatType = "STANDARD"
		}
		for col := 1; col <= rowLayout.Columns; col++ {
			seat := &models.Seat{
				ID:         uuid.New().String(),
				ShowID:     showID,
				SeatNo:     fmt.Sprintf("%c%d", 'A'+rowLayout.Row-1, col),
				Row:        rowLayout.Row,
				Column:     col,
				SeatType:   seatType,
				PriceCents: rowLayout.PriceCents,
			}
			st.s.seats[seat.ID] = seat
			created++
		}
	}

	if show, ok := st.s.shows[showID]; ok {
		show.TotalSeats = created
	}
	return created, nil
}

func (st *seatStore) Get(ctx context.Context, seatID string) (*models.Seat, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	seat, ok := st.s.seats[seatID]
	if !ok {
		return nil, bookingerr.ErrNotFound
	}
	out := copySeat(seat)
	return &out, nil
}

func (st *seatStore) GetMany(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return st.collect(showID, seatIDs), nil
}

func (st *seatStore) ListByShow(ctx context.Context, showID int64) ([]models.Seat, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var seats []models.Seat
	for _, seat := range st.s.seats {
		if seat.ShowID == showID {
			seats = append(seats, copySeat(seat))
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
	return seats, nil
}

func (st *seatStore) GetManyForUpdate(ctx context.Context, showID int64, seatIDs []string) ([]models.Seat, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return nil, fmt.Errorf("GetManyForUpdate requires a transaction")
	}

	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	// Try-lock every requested row; any contention fails the whole call.
	for _, id := range seatIDs {
		if st.s.seatLockedByOther(ctx, id) {
			return nil, bookingerr.ErrLockTimeout
		}
	}
	for _, id := range seatIDs {
		if _, ok := st.s.seats[id]; !ok {
			continue
		}
		if st.s.lockedBy[id] == nil {
			st.s.lockedBy[id] = tx
			tx.locked = append(tx.locked, id)
		}
	}

	return st.collect(showID, seatIDs), nil
}

// collect returns copies of the known seats for the show, ordered by row and
// column. Callers must hold s.mu.
func (st *seatStore) collect(showID int64, seatIDs []string) []models.Seat {
	var seats []models.Seat
	for _, id := range seatIDs {
		seat, ok := st.s.seats[id]
		if !ok || seat.ShowID != showID {
			continue
		}
		seats = append(seats, copySeat(seat))
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
	return seats
}

func (st *seatStore) SetHeld(ctx context.Context, seatIDs []string, now, expiresAt time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, id := range seatIDs {
		seat, ok := st.s.seats[id]
		if !ok || !seat.FreeAt(now) || st.s.seatLockedByOther(ctx, id) {
			return bookingerr.ErrSeatUnavailable
		}
	}

	for _, id := range seatIDs {
		st.mutate(ctx, id, func(seat *models.Seat) {
			t := expiresAt
			seat.Occupied = true
			seat.HeldUntil = &t
		})
	}
	return nil
}

func (st *seatStore) UpdateHeldUntil(ctx context.Context, seatIDs []string, currentExpiry, newExpiry time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	// Every seat must still carry the hold being extended; a rival reclaim
	// breaks the match and the whole batch is refused.
	for _, id := range seatIDs {
		seat, ok := st.s.seats[id]
		if !ok || seat.BookingID != nil || seat.HeldUntil == nil || !seat.HeldUntil.Equal(currentExpiry) {
			return bookingerr.ErrSeatUnavailable
		}
	}
	for _, id := range seatIDs {
		st.mutate(ctx, id, func(seat *models.Seat) {
			t := newExpiry
			seat.HeldUntil = &t
		})
	}
	return nil
}

func (st *seatStore) SetBooked(ctx context.Context, seatIDs []string, bookingID int64) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, id := range seatIDs {
		if _, ok := st.s.seats[id]; !ok {
			return fmt.Errorf("unknown seat %s", id)
		}
	}
	for _, id := range seatIDs {
		st.mutate(ctx, id, func(seat *models.Seat) {
			b := bookingID
			seat.Occupied = true
			seat.HeldUntil = nil
			seat.BookingID = &b
		})
	}
	return nil
}

func (st *seatStore) ReleaseUnbooked(ctx context.Context, seatIDs []string, heldBefore time.Time) ([]string, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var released []string
	for _, id := range seatIDs {
		seat, ok := st.s.seats[id]
		if !ok || seat.BookingID != nil || !seat.Occupied {
			continue
		}
		// A hold with a later expiry belongs to somebody else's
		// reclaim; leave it alone.
		if seat.HeldUntil == nil || seat.HeldUntil.After(heldBefore) {
			continue
		}
		st.mutate(ctx, id, clearSeat)
		released = append(released, id)
	}
	return released, nil
}

func (st *seatStore) ReleaseByBooking(ctx context.Context, bookingID int64) ([]string, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var released []string
	for id, seat := range st.s.seats {
		if seat.BookingID == nil || *seat.BookingID != bookingID {
			continue
		}
		st.mutate(ctx, id, clearSeat)
		released = append(released, id)
	}
	sort.Strings(released)
	return released, nil
}

// mutate applies fn to a seat, bumps its version and records the undo step.
// Callers must hold s.mu and have validated the seat exists.
func (st *seatStore) mutate(ctx context.Context, seatID string, fn func(*models.Seat)) {
	seat := st.s.seats[seatID]
	prev := copySeat(seat)
	st.s.journal(ctx, func() {
		restored := prev
		st.s.seats[seatID] = &restored
	})
	fn(seat)
	seat.Version++
}

func clearSeat(seat *models.Seat) {
	seat.Occupied = false
	seat.HeldUntil = nil
	seat.BookingID = nil
}
