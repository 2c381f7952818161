package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration observes HTTP request latency per route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinebook_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_created_total",
		Help: "Bookings committed successfully.",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_booking_conflicts_total",
		Help: "Booking attempts rejected because seats were taken.",
	})

	LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_booking_lock_timeouts_total",
		Help: "Booking attempts that lost the row-lock race.",
	})

	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_reservations_created_total",
		Help: "Seat holds placed.",
	})

	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_reservation_conflicts_total",
		Help: "Hold attempts rejected because seats were taken.",
	})

	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_reservations_expired_total",
		Help: "Holds released by the expiry sweeper.",
	})

	SeatsReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebook_seats_released_total",
		Help: "Seats returned to the free pool, by cause.",
	}, []string{"cause"})
)
