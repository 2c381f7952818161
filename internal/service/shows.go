package service

import (
	"context"
	"errors"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/clock"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// ShowService schedules shows and exposes their seat inventory. Scheduling
// is the only path that creates seat rows; seats are never deleted while
// the show exists.
type ShowService struct {
	stores *repository.Stores
	clk    clock.Clock
}

func NewShowService(stores *repository.Stores, clk clock.Clock) *ShowService {
	return &ShowService{stores: stores, clk: clk}
}

func (s *ShowService) Create(ctx context.Context, req *models.CreateShowRequest) (*models.CreateShowResponse, error) {
	ve := bookingerr.NewValidationError()
	if req.Title == "" {
		ve.Add("title", "title is required")
	}
	if len(req.Layout) == 0 {
		ve.Add("layout", "at least one seat row is required")
	}
	for _, row := range req.Layout {
		if row.Row < 1 || row.Columns < 1 {
			ve.Add("layout", "rows and columns must be positive")
			break
		}
		// Seat labels are a single letter per row, A through Z.
		if row.Row > 26 {
			ve.Add("layout", "row must be between 1 and 26")
			break
		}
		if row.PriceCents < 0 {
			ve.Add("layout", "price cannot be negative")
			break
		}
	}
	if ve.HasErrors() {
		return nil, ve
	}

	show := &models.Show{
		Title:    req.Title,
		StartsAt: req.StartsAt,
	}

	var created int
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Shows.Create(ctx, show); err != nil {
			return err
		}
		var err error
		created, err = s.stores.Seats.CreateForShow(ctx, show.ID, req.Layout)
		return err
	})
	if err != nil {
		return nil, bookingerr.Storage("show create", err)
	}

	return &models.CreateShowResponse{ID: show.ID, TotalSeats: created}, nil
}

func (s *ShowService) Get(ctx context.Context, id int64) (*models.Show, error) {
	show, err := s.stores.Shows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil, bookingerr.ErrNotFound
		}
		return nil, bookingerr.Storage("show get", err)
	}
	return show, nil
}

// ListSeats renders the full seat map of a show, applying lazy expiry so an
// unswept hold past its deadline already reads as free.
func (s *ShowService) ListSeats(ctx context.Context, showID int64) (models.ListSeatsResponse, error) {
	if _, err := s.Get(ctx, showID); err != nil {
		return nil, err
	}

	seats, err := s.stores.Seats.ListByShow(ctx, showID)
	if err != nil {
		return nil, bookingerr.Storage("seat list", err)
	}

	now := s.clk.Now()
	result := make(models.ListSeatsResponse, len(seats))
	for i, seat := range seats {
		result[i] = models.ListSeatsResponseItem{
			ID:     seat.ID,
			SeatNo: seat.SeatNo,
			Row:    seat.Row,
			Column: seat.Column,
			Status: seatStatus(&seat, now),
			Price:  models.FormatCents(seat.PriceCents),
		}
	}
	return result, nil
}

func seatStatus(seat *models.Seat, now time.Time) string {
	switch {
	case seat.BookingID != nil:
		return "BOOKED"
	case seat.Occupied && seat.HeldUntil != nil && seat.HeldUntil.After(now):
		return "HELD"
	default:
		return "FREE"
	}
}
