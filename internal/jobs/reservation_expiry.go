package jobs

import (
	"context"
	"log/slog"
	"time"

	"cinebook/internal/clock"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// ReservationExpiryJob is the expiry sweeper: a periodic scan over the
// persisted expires_at column rather than per-reservation timers, so holds
// survive process restarts. Correctness never depends on sweep latency;
// readers already treat an unswept expired hold as free.
type ReservationExpiryJob struct {
	reservations repository.ReservationStore
	seats        repository.SeatStore
	publisher    messaging.Publisher
	clk          clock.Clock
	interval     time.Duration
	ticker       *time.Ticker
	done         chan bool
}

func NewReservationExpiryJob(reservations repository.ReservationStore, seats repository.SeatStore, publisher messaging.Publisher, clk clock.Clock, interval time.Duration) *ReservationExpiryJob {
	return &ReservationExpiryJob{
		reservations: reservations,
		seats:        seats,
		publisher:    publisher,
		clk:          clk,
		interval:     interval,
		done:         make(chan bool),
	}
}

// Start begins the background sweep loop.
func (j *ReservationExpiryJob) Start(ctx context.Context) {
	slog.Info("Starting reservation expiry sweeper", "interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	// Run an initial sweep immediately.
	go j.Sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.Sweep(ctx)
			case <-j.done:
				slog.Info("Reservation expiry sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweep loop.
func (j *ReservationExpiryJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

// Sweep finds every reservation past its expiry, releases the seats that
// were never converted into a booking, and deletes the records. A seat
// booked between the scan and the release is left alone (the release is
// conditional on booking_id still being null), and so is a seat another
// user reclaimed after this hold lapsed (the release only matches seats
// whose held_until is at or before the swept reservation's expiry).
func (j *ReservationExpiryJob) Sweep(ctx context.Context) {
	now := j.clk.Now()
	expired, err := j.reservations.ListExpired(ctx, now)
	if err != nil {
		slog.Error("Failed to list expired reservations", "error", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	slog.Info("Sweeping expired reservations", "count", len(expired))

	for _, res := range expired {
		released, err := j.seats.ReleaseUnbooked(ctx, res.SeatIDs, res.ExpiresAt)
		if err != nil {
			slog.Error("Failed to release seats for expired reservation",
				"error", err,
				"reservation_id", res.ID,
				"show_id", res.ShowID,
				"user_id", res.UserID)
			continue
		}

		if err := j.reservations.Delete(ctx, res.ID); err != nil {
			slog.Error("Failed to delete expired reservation",
				"error", err,
				"reservation_id", res.ID)
			continue
		}

		metrics.ReservationsExpired.Inc()
		metrics.SeatsReleased.WithLabelValues("expiry").Add(float64(len(released)))

		if err := j.publisher.Publish(models.EventReservationExpired, models.ReservationExpiredEvent{
			ReservationID: res.ID,
			ShowID:        res.ShowID,
			SeatsReleased: len(released),
			Timestamp:     now,
		}); err != nil {
			slog.Error("Failed to publish reservation expired event",
				"error", err,
				"reservation_id", res.ID)
		}

		slog.Info("Expired reservation swept",
			"reservation_id", res.ID,
			"show_id", res.ShowID,
			"seats_released", len(released),
			"overdue", now.Sub(res.ExpiresAt).String())
	}
}
