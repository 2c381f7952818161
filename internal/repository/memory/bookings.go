package memory

import (
	"context"
	"sort"

	"cinebook/internal/bookingerr"
	"cinebook/internal/models"
)

type bookingStore struct {
	s *store
}

func (st *bookingStore) Create(ctx context.Context, booking *models.Booking, lines []models.BookingLine) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	st.s.nextBookingID++
	booking.ID = st.s.nextBookingID
	booking.CreatedAt = st.s.clk.Now()
	booking.UpdatedAt = booking.CreatedAt

	stored := *booking
	storedLines := make([]models.BookingLine, len(lines))
	for i := range lines {
		lines[i].BookingID = booking.ID
		lines[i].ID = int64(i + 1)
		storedLines[i] = lines[i]
	}
	st.s.bookings[booking.ID] = &stored
	st.s.lines[booking.ID] = storedLines

	id := booking.ID
	st.s.journal(ctx, func() {
		delete(st.s.bookings, id)
		delete(st.s.lines, id)
	})
	return nil
}

func (st *bookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	booking, ok := st.s.bookings[id]
	if !ok {
		return nil, bookingerr.ErrNotFound
	}
	out := *booking
	return &out, nil
}

func (st *bookingStore) GetLines(ctx context.Context, bookingID int64) ([]models.BookingLine, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	return append([]models.BookingLine(nil), st.s.lines[bookingID]...), nil
}

func (st *bookingStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	booking, ok := st.s.bookings[id]
	if !ok {
		return bookingerr.ErrNotFound
	}

	prev := booking.Status
	st.s.journal(ctx, func() { booking.Status = prev })

	booking.Status = status
	booking.UpdatedAt = st.s.clk.Now()
	return nil
}

func (st *bookingStore) ListCancelledWithOccupiedSeats(ctx context.Context) ([]int64, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	seen := make(map[int64]bool)
	for _, seat := range st.s.seats {
		if seat.BookingID == nil {
			continue
		}
		booking, ok := st.s.bookings[*seat.BookingID]
		if ok && booking.Status == models.BookingCancelled {
			seen[booking.ID] = true
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
