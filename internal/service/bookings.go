package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// BookingService is the booking transaction coordinator: the all-or-nothing
// protocol that converts a validated seat set into a permanent booking.
type BookingService struct {
	stores    *repository.Stores
	publisher messaging.Publisher
	clk       clock.Clock
	rules     config.Rules
}

func NewBookingService(stores *repository.Stores, publisher messaging.Publisher, clk clock.Clock, rules config.Rules) *BookingService {
	return &BookingService{
		stores:    stores,
		publisher: publisher,
		clk:       clk,
		rules:     rules,
	}
}

// Create executes the booking protocol: cheap validation first, then one
// storage transaction that locks the seat rows without waiting, re-validates
// them, prices them from the values read under the lock, inserts the booking
// with its lines and flips the seats. Any failure rolls the whole unit back:
// a booking row never exists without its seats marked booked, and vice
// versa.
func (s *BookingService) Create(ctx context.Context, showID, userID int64, assignments []models.SeatAssignment, contact models.Contact) (*models.BookingConfirmation, error) {
	if err := validateBookingInput(assignments, contact); err != nil {
		return nil, err
	}

	if _, err := s.stores.Shows.GetByID(ctx, showID); err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil, bookingerr.ErrNotFound
		}
		return nil, bookingerr.Storage("booking create", err)
	}

	seatIDs := make([]string, len(assignments))
	byID := make(map[string]models.SeatAssignment, len(assignments))
	for i, a := range assignments {
		seatIDs[i] = a.SeatID
		byID[a.SeatID] = a
	}

	now := s.clk.Now()
	booking := &models.Booking{
		ShowID: showID,
		UserID: userID,
		Status: models.BookingConfirmed,
	}
	var lines []models.BookingLine

	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		// Step 1: exclusive non-blocking lock on exactly the targeted rows.
		locked, err := s.stores.Seats.GetManyForUpdate(ctx, showID, seatIDs)
		if err != nil {
			return err
		}

		// Step 2: re-validate under the lock.
		ownHeld, err := s.userHeldSeats(ctx, userID, showID, now)
		if err != nil {
			return err
		}
		if ce := s.revalidate(seatIDs, locked, ownHeld, now); ce != nil {
			return ce
		}

		// Step 3: price from the state read under the lock, not from any
		// quote given at reservation time.
		var total int64
		lines = make([]models.BookingLine, 0, len(locked))
		for _, seat := range locked {
			a := byID[seat.ID]
			total += seat.PriceCents
			lines = append(lines, models.BookingLine{
				SeatID:              seat.ID,
				CustomerName:        a.CustomerName,
				CustomerAge:         a.CustomerAge,
				Gender:              a.Gender,
				PriceCentsAtBooking: seat.PriceCents,
			})
		}
		booking.TotalAmountCents = total

		// Steps 4 and 5: booking row plus lines, then flip the seats.
		if err := s.stores.Bookings.Create(ctx, booking, lines); err != nil {
			return err
		}
		return s.stores.Seats.SetBooked(ctx, seatIDs, booking.ID)
	})
	if err != nil {
		return nil, s.classifyCreateError(ctx, err, showID, userID, seatIDs)
	}

	metrics.BookingsCreated.Inc()
	s.publish(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:   booking.ID,
		ShowID:      showID,
		UserID:      userID,
		SeatIDs:     seatIDs,
		TotalAmount: booking.TotalAmountCents,
		Timestamp:   now,
	})

	// Any reservation covering these seats is now orphaned metadata; the
	// sweeper deletes it and its release is a no-op against booked seats.

	return &models.BookingConfirmation{
		BookingID:   booking.ID,
		ShowID:      showID,
		Status:      booking.Status,
		SeatIDs:     seatIDs,
		TotalAmount: models.FormatCents(booking.TotalAmountCents),
		CreatedAt:   booking.CreatedAt,
	}, nil
}

// userHeldSeats collects the seats currently held by the purchasing user,
// so a seat they reserved themselves does not read as held by a rival.
func (s *BookingService) userHeldSeats(ctx context.Context, userID, showID int64, now time.Time) (map[string]bool, error) {
	own := make(map[string]bool)
	reservations, err := s.stores.Reservations.ListActiveByUserAndShow(ctx, userID, showID, now)
	if err != nil {
		return nil, err
	}
	for _, res := range reservations {
		for _, id := range res.SeatIDs {
			own[id] = true
		}
	}
	return own, nil
}

// revalidate classifies the locked rows. Unknown id, already booked and
// held-by-other are distinguished because they need different user
// messaging.
func (s *BookingService) revalidate(requested []string, locked []models.Seat, ownHeld map[string]bool, now time.Time) *bookingerr.ConflictError {
	byID := make(map[string]*models.Seat, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}

	ce := &bookingerr.ConflictError{}
	for _, id := range requested {
		seat, ok := byID[id]
		switch {
		case !ok:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID: id, Reason: bookingerr.ReasonUnknownID,
			})
		case seat.BookingID != nil:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID: id, Reason: bookingerr.ReasonBooked,
			})
		case seat.Occupied && seat.HeldUntil != nil && seat.HeldUntil.After(now) && !ownHeld[id]:
			ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
				SeatID:    id,
				Reason:    bookingerr.ReasonHeld,
				ExpiresIn: seat.HeldUntil.Sub(now),
			})
		}
	}
	if len(ce.Seats) == 0 {
		return nil
	}
	return ce
}

func (s *BookingService) classifyCreateError(ctx context.Context, err error, showID, userID int64, seatIDs []string) error {
	var ce *bookingerr.ConflictError
	switch {
	case errors.Is(err, bookingerr.ErrLockTimeout):
		metrics.LockTimeouts.Inc()
		logger.WithContext(ctx).Warn("Booking lost the seat lock race",
			"show_id", showID, "user_id", userID, "seat_ids", strings.Join(seatIDs, ","))
		return bookingerr.ErrLockTimeout
	case errors.As(err, &ce):
		metrics.BookingConflicts.Inc()
		logger.WithContext(ctx).Info("Booking rejected on seat conflict",
			"show_id", showID, "user_id", userID, "conflicts", len(ce.Seats))
		return ce
	default:
		wrapped := bookingerr.Storage("booking create", err)
		logger.WithContext(ctx).Error("Booking transaction failed and was rolled back",
			"error", err,
			"show_id", showID, "user_id", userID, "seat_ids", strings.Join(seatIDs, ","))
		return wrapped
	}
}

// Cancel flips a booking to cancelled and releases its seats in one
// transaction. Only the owner may cancel, only while the booking is pending
// or confirmed, and only while the show is far enough away.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID int64, reason string) (*models.Booking, error) {
	booking, err := s.stores.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil, bookingerr.ErrNotFound
		}
		return nil, bookingerr.Storage("booking cancel", err)
	}

	if booking.UserID != userID {
		logger.WithContext(ctx).Warn("Cancellation by non-owner rejected",
			"booking_id", bookingID, "owner_id", booking.UserID, "user_id", userID)
		return nil, bookingerr.ErrUnauthorized
	}
	if !booking.Cancellable() {
		return nil, bookingerr.ErrNotCancellable
	}

	show, err := s.stores.Shows.GetByID(ctx, booking.ShowID)
	if err != nil {
		return nil, bookingerr.Storage("booking cancel", err)
	}
	if show.StartsAt.Sub(s.clk.Now()) <= s.rules.CancellationCutoff {
		return nil, bookingerr.ErrNotCancellable
	}

	var released []string
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Bookings.UpdateStatus(ctx, bookingID, models.BookingCancelled); err != nil {
			return err
		}
		released, err = s.stores.Seats.ReleaseByBooking(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, bookingerr.Storage("booking cancel", err)
	}

	booking.Status = models.BookingCancelled
	metrics.SeatsReleased.WithLabelValues("booking_cancel").Add(float64(len(released)))
	s.publish(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: bookingID,
		ShowID:    booking.ShowID,
		UserID:    userID,
		Reason:    reason,
		Timestamp: s.clk.Now(),
	})
	s.publish(ctx, models.EventSeatsReleased, models.SeatsReleasedEvent{
		ShowID:    booking.ShowID,
		SeatIDs:   released,
		Cause:     "booking_cancel",
		Timestamp: s.clk.Now(),
	})

	return booking, nil
}

// Get returns a booking owned by the calling user.
func (s *BookingService) Get(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking, err := s.stores.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil, bookingerr.ErrNotFound
		}
		return nil, bookingerr.Storage("booking get", err)
	}
	if booking.UserID != userID {
		return nil, bookingerr.ErrUnauthorized
	}
	return booking, nil
}

// SeatPrice sums the current prices of a seat set. Unknown ids surface as a
// conflict so callers never silently price a partial set.
func (s *BookingService) SeatPrice(ctx context.Context, showID int64, seatIDs []string) (int64, error) {
	if len(seatIDs) == 0 {
		ve := bookingerr.NewValidationError()
		ve.Add("seat_ids", "at least one seat is required")
		return 0, ve
	}

	seats, err := s.stores.Seats.GetMany(ctx, showID, seatIDs)
	if err != nil {
		return 0, bookingerr.Storage("seat price", err)
	}
	if len(seats) != len(seatIDs) {
		known := make(map[string]bool, len(seats))
		for _, seat := range seats {
			known[seat.ID] = true
		}
		ce := &bookingerr.ConflictError{}
		for _, id := range seatIDs {
			if !known[id] {
				ce.Seats = append(ce.Seats, bookingerr.SeatConflict{
					SeatID: id, Reason: bookingerr.ReasonUnknownID,
				})
			}
		}
		return 0, ce
	}

	var total int64
	for _, seat := range seats {
		total += seat.PriceCents
	}
	return total, nil
}

// RecoverCancelled re-releases seats for bookings that were cancelled but
// whose seats still reference them, repairing a crash between the status
// write and the release. Release is idempotent so re-running is safe.
func (s *BookingService) RecoverCancelled(ctx context.Context) error {
	ids, err := s.stores.Bookings.ListCancelledWithOccupiedSeats(ctx)
	if err != nil {
		return bookingerr.Storage("cancellation recovery", err)
	}

	for _, id := range ids {
		released, err := s.stores.Seats.ReleaseByBooking(ctx, id)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to re-release seats for cancelled booking",
				"error", err, "booking_id", id)
			continue
		}
		metrics.SeatsReleased.WithLabelValues("recovery").Add(float64(len(released)))
		logger.WithContext(ctx).Info("Re-released seats for cancelled booking",
			"booking_id", id, "seats_released", len(released))
	}
	return nil
}

func validateBookingInput(assignments []models.SeatAssignment, contact models.Contact) error {
	ve := bookingerr.NewValidationError()

	if len(assignments) == 0 {
		ve.Add("seats", "at least one seat is required")
	}

	seen := make(map[string]bool, len(assignments))
	for i, a := range assignments {
		field := fmt.Sprintf("seats[%d]", i)
		if a.SeatID == "" {
			ve.Add(field+".seat_id", "seat id is required")
		} else if seen[a.SeatID] {
			ve.Add(field+".seat_id", "duplicate seat id")
		}
		seen[a.SeatID] = true
		if strings.TrimSpace(a.CustomerName) == "" {
			ve.Add(field+".customer_name", "customer name is required")
		}
		if a.CustomerAge < 1 || a.CustomerAge > 120 {
			ve.Add(field+".customer_age", "age must be between 1 and 120")
		}
	}

	if strings.TrimSpace(contact.Email) == "" {
		ve.Add("contact.email", "email is required")
	}
	if strings.TrimSpace(contact.Phone) == "" {
		ve.Add("contact.phone", "phone is required")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish booking event",
			"error", err,
			"event_type", subject)
	}
}
