package service

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/clock"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// AvailabilityService classifies seat sets for UI feedback and
// pre-validation. It takes no locks; the authoritative check happens inside
// the booking coordinator under a row lock, because a plain read here can
// always lose a race against a concurrent hold.
type AvailabilityService struct {
	seats repository.SeatStore
	clk   clock.Clock
}

func NewAvailabilityService(seats repository.SeatStore, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{seats: seats, clk: clk}
}

func (s *AvailabilityService) Check(ctx context.Context, showID int64, seatIDs []string) (*models.AvailabilityReport, error) {
	if len(seatIDs) == 0 {
		ve := bookingerr.NewValidationError()
		ve.Add("seat_ids", "at least one seat is required")
		return nil, ve
	}

	seats, err := s.seats.GetMany(ctx, showID, seatIDs)
	if err != nil {
		return nil, bookingerr.Storage("availability check", fmt.Errorf("failed to get seats: %w", err))
	}

	byID := make(map[string]*models.Seat, len(seats))
	for i := range seats {
		byID[seats[i].ID] = &seats[i]
	}

	now := s.clk.Now()
	report := &models.AvailabilityReport{
		ShowID:    showID,
		Available: true,
		Seats:     make([]models.SeatAvailability, 0, len(seatIDs)),
	}

	for _, id := range seatIDs {
		entry := models.SeatAvailability{SeatID: id}
		seat, ok := byID[id]
		switch {
		case !ok:
			entry.Status = models.SeatNotFound
		case seat.BookingID != nil:
			entry.Status = models.SeatBookedByOther
		case seat.Occupied && seat.HeldUntil != nil && seat.HeldUntil.After(now):
			entry.Status = models.SeatHeldByOther
			entry.ExpiresInSec = int64(seat.HeldUntil.Sub(now) / time.Second)
		default:
			// Covers never-held seats and holds that lazily expired.
			entry.Status = models.SeatAvailable
		}
		if entry.Status != models.SeatAvailable {
			report.Available = false
		}
		report.Seats = append(report.Seats, entry)
	}

	return report, nil
}

// conflictsFrom turns the non-available entries of a report into the
// per-seat conflicts the error taxonomy carries.
func conflictsFrom(report *models.AvailabilityReport) *bookingerr.ConflictError {
	ce := &bookingerr.ConflictError{}
	for _, entry := range report.Seats {
		switch entry.Status {
		case models.SeatBookedByOther:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID: entry.SeatID, Reason: bookingerr.ReasonBooked,
			})
		case models.SeatHeldByOther:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID:    entry.SeatID,
				Reason:    bookingerr.ReasonHeld,
				ExpiresIn: time.Duration(entry.ExpiresInSec) * time.Second,
			})
		case models.SeatNotFound:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID: entry.SeatID, Reason: bookingerr.ReasonUnknownID,
			})
		}
	}
	return ce
}
