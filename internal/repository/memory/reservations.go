package memory

import (
	"context"
	"sort"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/models"
)

type reservationStore struct {
	s *store
}

func (st *reservationStore) Create(ctx context.Context, res *models.Reservation) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	stored := *res
	stored.SeatIDs = append([]string(nil), res.SeatIDs...)
	st.s.reservations[res.ID] = &stored
	return nil
}

func (st *reservationStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	res, ok := st.s.reservations[id]
	if !ok {
		return nil, bookingerr.ErrNotFound
	}
	out := *res
	out.SeatIDs = append([]string(nil), res.SeatIDs...)
	return &out, nil
}

func (st *reservationStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if res, ok := st.s.reservations[id]; ok {
		prev := res.ExpiresAt
		st.s.journal(ctx, func() { res.ExpiresAt = prev })
		res.ExpiresAt = expiresAt
	}
	return nil
}

func (st *reservationStore) Delete(ctx context.Context, id string) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	delete(st.s.reservations, id)
	return nil
}

func (st *reservationStore) ListActiveByUserAndShow(ctx context.Context, userID, showID int64, now time.Time) ([]models.Reservation, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var active []models.Reservation
	for _, res := range st.s.reservations {
		if res.UserID != userID || res.ShowID != showID || !res.ExpiresAt.After(now) {
			continue
		}
		out := *res
		out.SeatIDs = append([]string(nil), res.SeatIDs...)
		active = append(active, out)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (st *reservationStore) ListExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var expired []models.Reservation
	for _, res := range st.s.reservations {
		if res.ExpiresAt.Before(now) {
			out := *res
			out.SeatIDs = append([]string(nil), res.SeatIDs...)
			expired = append(expired, out)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	return expired, nil
}
