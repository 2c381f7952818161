package service

import (
	"cinebook/internal/clock"
	"cinebook/internal/config"
	"cinebook/internal/messaging"
	"cinebook/internal/repository"
)

// Services bundles the booking core for injection into the HTTP layer and
// the background jobs.
type Services struct {
	Shows        *ShowService
	Availability *AvailabilityService
	Reservations *ReservationService
	Bookings     *BookingService
}

func NewServices(stores *repository.Stores, publisher messaging.Publisher, clk clock.Clock, rules config.Rules) *Services {
	availability := NewAvailabilityService(stores.Seats, clk)
	return &Services{
		Shows:        NewShowService(stores, clk),
		Availability: availability,
		Reservations: NewReservationService(stores, availability, publisher, clk, rules),
		Bookings:     NewBookingService(stores, publisher, clk, rules),
	}
}
