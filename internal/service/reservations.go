package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/bookingerr"
	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
	"cinebook/internal/repository"

	"github.com/google/uuid"
)

// ReservationService creates, extends, cancels and inspects seat holds.
type ReservationService struct {
	stores       *repository.Stores
	availability *AvailabilityService
	publisher    messaging.Publisher
	clk          clock.Clock
	rules        config.Rules
}

func NewReservationService(stores *repository.Stores, availability *AvailabilityService, publisher messaging.Publisher, clk clock.Clock, rules config.Rules) *ReservationService {
	return &ReservationService{
		stores:       stores,
		availability: availability,
		publisher:    publisher,
		clk:          clk,
		rules:        rules,
	}
}

func (s *ReservationService) Create(ctx context.Context, showID int64, seatIDs []string, userID int64, ttl time.Duration) (*models.Reservation, error) {
	if ttl <= 0 {
		ttl = s.rules.HoldTTL
	}
	if ttl > s.rules.ExtensionCap {
		ve := bookingerr.NewValidationError()
		ve.Add("ttl_minutes", fmt.Sprintf("hold cannot exceed %d minutes", int(s.rules.ExtensionCap.Minutes())))
		return nil, ve
	}

	report, err := s.availability.Check(ctx, showID, seatIDs)
	if err != nil {
		return nil, err
	}
	if !report.Available {
		metrics.ReservationConflicts.Inc()
		return nil, conflictsFrom(report)
	}

	now := s.clk.Now()
	res := &models.Reservation{
		ID:        uuid.New().String(),
		ShowID:    showID,
		UserID:    userID,
		SeatIDs:   append([]string(nil), seatIDs...),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	// Seat held_until and the reservation row move in one transaction so
	// they stay in lockstep.
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Seats.SetHeld(ctx, seatIDs, now, res.ExpiresAt); err != nil {
			return err
		}
		return s.stores.Reservations.Create(ctx, res)
	})
	if err != nil {
		if errors.Is(err, bookingerr.ErrSeatUnavailable) {
			// Lost the race against a concurrent holder. No silent retry:
			// the caller must re-check availability and resubmit.
			metrics.ReservationConflicts.Inc()
			return nil, s.conflictAfterLostRace(ctx, showID, seatIDs)
		}
		return nil, bookingerr.Storage("reservation create", err)
	}

	metrics.ReservationsCreated.Inc()
	s.publish(ctx, models.EventReservationCreated, models.ReservationCreatedEvent{
		ReservationID: res.ID,
		ShowID:        showID,
		UserID:        userID,
		SeatIDs:       res.SeatIDs,
		ExpiresAt:     res.ExpiresAt,
		Timestamp:     now,
	})

	return res, nil
}

// conflictAfterLostRace re-reads the seats to name the offenders. If the
// re-read shows everything free again (the rival hold was released in the
// meantime), the race itself is still reported as a held conflict.
func (s *ReservationService) conflictAfterLostRace(ctx context.Context, showID int64, seatIDs []string) error {
	report, err := s.availability.Check(ctx, showID, seatIDs)
	if err == nil {
		if ce := conflictsFrom(report); len(ce.Seats) > 0 {
			return ce
		}
	}
	ce := &bookingerr.ConflictError{}
	for _, id := range seatIDs {
		ce.Seats = append(ce.Seats, bookingerr.SeatConflict{SeatID: id, Reason: bookingerr.ReasonHeld})
	}
	return ce
}

func (s *ReservationService) Extend(ctx context.Context, reservationID string, additionalMinutes int) (*models.Reservation, error) {
	if additionalMinutes <= 0 {
		ve := bookingerr.NewValidationError()
		ve.Add("minutes", "must be positive")
		return nil, ve
	}

	// Read, expiry check and both writes share one transaction: an extend
	// racing the sweeper or a rival reclaim must not resurrect a lapsed
	// hold. UpdateHeldUntil only matches seats whose held_until still
	// equals this reservation's expiry, so if the seats were reclaimed
	// after it lapsed the whole transaction rolls back.
	var res *models.Reservation
	err := s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.stores.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}

		if !res.ExpiresAt.After(s.clk.Now()) {
			return bookingerr.ErrReservationExpired
		}

		newExpiry := res.ExpiresAt.Add(time.Duration(additionalMinutes) * time.Minute)
		if newExpiry.Sub(res.CreatedAt) > s.rules.ExtensionCap {
			return bookingerr.ErrExtensionCapExceeded
		}

		if err := s.stores.Reservations.UpdateExpiry(ctx, reservationID, newExpiry); err != nil {
			return err
		}
		if err := s.stores.Seats.UpdateHeldUntil(ctx, res.SeatIDs, res.ExpiresAt, newExpiry); err != nil {
			return err
		}
		res.ExpiresAt = newExpiry
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, bookingerr.ErrNotFound):
			return nil, bookingerr.ErrNotFound
		case errors.Is(err, bookingerr.ErrReservationExpired),
			errors.Is(err, bookingerr.ErrExtensionCapExceeded):
			return nil, err
		case errors.Is(err, bookingerr.ErrSeatUnavailable):
			// The record read as live but the seats no longer carry this
			// hold: it lapsed and was reclaimed mid-flight.
			return nil, bookingerr.ErrReservationExpired
		}
		return nil, bookingerr.Storage("reservation extend", err)
	}

	s.publish(ctx, models.EventReservationExtended, models.ReservationCreatedEvent{
		ReservationID: res.ID,
		ShowID:        res.ShowID,
		UserID:        res.UserID,
		SeatIDs:       res.SeatIDs,
		ExpiresAt:     res.ExpiresAt,
		Timestamp:     s.clk.Now(),
	})

	return res, nil
}

// Cancel releases the reservation's seats and deletes the record. It is
// idempotent: cancelling an unknown, expired or already-converted
// reservation is a no-op.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) error {
	res, err := s.stores.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil
		}
		return bookingerr.Storage("reservation cancel", err)
	}

	var released []string
	err = s.stores.Tx.WithTx(ctx, func(ctx context.Context) error {
		// ReleaseUnbooked leaves converted (booked) seats untouched, and
		// the expiry bound skips seats a later hold reclaimed after this
		// reservation lapsed.
		released, err = s.stores.Seats.ReleaseUnbooked(ctx, res.SeatIDs, res.ExpiresAt)
		if err != nil {
			return err
		}
		return s.stores.Reservations.Delete(ctx, reservationID)
	})
	if err != nil {
		return bookingerr.Storage("reservation cancel", err)
	}

	metrics.SeatsReleased.WithLabelValues("reservation_cancel").Add(float64(len(released)))
	s.publish(ctx, models.EventReservationCancelled, models.SeatsReleasedEvent{
		ShowID:    res.ShowID,
		SeatIDs:   released,
		Cause:     "reservation_cancel",
		Timestamp: s.clk.Now(),
	})

	return nil
}

func (s *ReservationService) Get(ctx context.Context, reservationID string) (*models.Reservation, error) {
	res, err := s.stores.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, bookingerr.ErrNotFound) {
			return nil, bookingerr.ErrNotFound
		}
		return nil, bookingerr.Storage("reservation get", err)
	}
	return res, nil
}

// TimeRemaining returns max(0, expires_at - now).
func (s *ReservationService) TimeRemaining(ctx context.Context, reservationID string) (time.Duration, error) {
	res, err := s.Get(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	remaining := res.ExpiresAt.Sub(s.clk.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *ReservationService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish reservation event",
			"error", err,
			"event_type", subject)
	}
}
